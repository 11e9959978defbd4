package semantic

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantConfig locates the collection holding name vectors.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
}

// QdrantIndex implements VectorIndex on a Qdrant collection. Points carry
// the kind and name as payload; ids are derived from both so re-upserting a
// name overwrites its vector.
type QdrantIndex struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn

	mu      sync.Mutex
	ensured bool
}

func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}
	return &QdrantIndex{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

func (q *QdrantIndex) Close() error {
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection with cosine distance if missing.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ensured {
		return nil
	}
	if _, err := q.client.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: q.collection}); err == nil {
		q.ensured = true
		return nil
	}
	_, err := q.client.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	q.ensured = true
	return nil
}

func pointID(kind Kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(string(kind)+":"+name)).String()
}

func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := q.EnsureCollection(ctx, uint64(len(points[0].Vector))); err != nil {
		return err
	}
	pts := make([]*pb.PointStruct, 0, len(points))
	for _, p := range points {
		pts = append(pts, &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(p.Kind, p.Name)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: p.Vector},
				},
			},
			Payload: map[string]*pb.Value{
				"kind": {Kind: &pb.Value_StringValue{StringValue: string(p.Kind)}},
				"name": {Kind: &pb.Value_StringValue{StringValue: p.Name}},
			},
		})
	}
	if _, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Points:         pts,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, kind Kind, vector []float32, limit int) ([]Hit, error) {
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter: &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: "kind",
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{Keyword: string(kind)},
							},
						},
					},
				},
			},
		},
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}
	hits := make([]Hit, 0, len(resp.Result))
	for _, p := range resp.Result {
		name := ""
		if v, ok := p.Payload["name"]; ok {
			name = v.GetStringValue()
		}
		if name == "" {
			continue
		}
		hits = append(hits, Hit{Name: name, Score: float64(p.Score)})
	}
	return hits, nil
}

func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	resp, err := q.client.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: q.collection})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}
	if resp.Result.PointsCount == nil {
		return 0, nil
	}
	return int(*resp.Result.PointsCount), nil
}
