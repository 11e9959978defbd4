package service

import (
	"strings"

	"fuid-service/internal/fuid/lexical"
	"fuid-service/internal/fuid/model"
)

// Generate returns the FUID for the normalized (company, product, version)
// triple, allocating whatever identities are missing. Repeating a call with
// the same normalized triple never touches a counter.
func Generate(st *Store, req model.GenerateRequest) (model.GenerateResult, error) {
	if strings.TrimSpace(req.Company) == "" {
		return model.GenerateResult{}, ErrCompanyRequired
	}
	if strings.TrimSpace(req.Product) == "" {
		return model.GenerateResult{}, ErrProductRequired
	}

	company := lexical.Normalize(req.Company)
	product := lexical.Normalize(req.Product)
	version := CanonicalVersion(req.Version)

	res := model.GenerateResult{
		Company: model.EntityResult{Name: req.Company, Normalized: company},
		Product: model.EntityResult{Name: req.Product, Normalized: product},
		Version: model.VersionResult{Version: version},
	}

	err := st.Update(func(tx *Tx) error {
		if rec, ok := tx.FindFUID(company, product, version); ok {
			res.FUID = rec.FUID
			res.Company.ID, res.Company.Status = rec.CompanyID, model.StatusExisting
			res.Product.ID, res.Product.Status = rec.ProductID, model.StatusExisting
			res.Version.ID, res.Version.Status = rec.VersionID, model.StatusExisting
			res.FUIDStatus = model.StatusExisting
			return nil
		}

		res.Company.ID, res.Company.Status = tx.AllocateCompanyID(company)
		res.Product.ID, res.Product.Status = tx.AllocateProductID(company, product)
		res.Version.ID, res.Version.Status = tx.AllocateVersionID(company, product, version)
		res.FUID = FormatFUID(res.Company.ID, res.Product.ID, version)

		// The formatted FUID may already name another triple, or an entry
		// that failed to load, when the mappings disagree with the records.
		// Mint past it rather than hand this entity someone else's identity.
		for {
			taken, ok := tx.doc.FUIDMappings.Get(res.FUID)
			if ok && taken.Company == company && taken.Product == product && taken.Version == version {
				break
			}
			if !ok && !tx.doc.FUIDMappings.Held(res.FUID) {
				break
			}
			if ok && taken.Company != company && taken.CompanyID == res.Company.ID {
				res.Company.ID, res.Company.Status = tx.MintCompanyID(company), model.StatusNew
			}
			res.Product.ID, res.Product.Status = tx.MintProductID(company, product), model.StatusNew
			res.FUID = FormatFUID(res.Company.ID, res.Product.ID, version)
		}

		rec := &model.Record{
			FUID:       res.FUID,
			Company:    company,
			CompanyID:  res.Company.ID,
			Product:    product,
			ProductID:  res.Product.ID,
			Version:    version,
			VersionID:  res.Version.ID,
			Platform:   strings.TrimSpace(req.Platform),
			URL:        strings.TrimSpace(req.URL),
			Categories: strings.TrimSpace(req.Categories),
		}
		if tx.UpsertFUID(rec) {
			res.FUIDStatus = model.StatusNew
		} else {
			res.FUIDStatus = model.StatusExisting
		}
		return nil
	})
	if err != nil {
		return model.GenerateResult{}, err
	}
	return res, nil
}
