package enrichment

import (
	"context"

	"github.com/portana/portgraph/internal/clients/factset"
	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/interfaces"
	"github.com/portana/portgraph/internal/models"
)

// RelationshipEnricher derives geography and ownership relationships
// for companies.
type RelationshipEnricher struct {
	client interfaces.FactSetClient
	logger *common.Logger
}

// NewRelationshipEnricher creates a relationship enricher.
func NewRelationshipEnricher(client interfaces.FactSetClient, logger *common.Logger) *RelationshipEnricher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &RelationshipEnricher{client: client, logger: logger}
}

// EnrichGeography maps a headquarters country name to its country
// entity. Unknown country names are skipped with a warning, never
// fatal. No provider call is involved.
func (e *RelationshipEnricher) EnrichGeography(entityID, countryName string) *models.Country {
	if countryName == "" {
		return nil
	}

	info, ok := models.LookupCountry(countryName)
	if !ok {
		e.logger.Warn().Str("entity_id", entityID).Str("country", countryName).Msg("unknown country skipped")
		return nil
	}

	return &models.Country{
		FIBOID:  models.CountryFIBOID(info.ISOCode),
		Name:    countryName,
		ISOCode: info.ISOCode,
		Region:  info.Region,
	}
}

// EnrichSubsidiaries derives ownership edges from the provider entity
// structure. Direction follows which side of each parent/child pair is
// the queried entity; rows touching neither are skipped.
func (e *RelationshipEnricher) EnrichSubsidiaries(ctx context.Context, entityID string) ([]models.Relationship, error) {
	items, err := e.client.GetEntityStructure(ctx, []string{entityID})
	if err != nil {
		if factset.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var relationships []models.Relationship
	for _, item := range items {
		if item.ParentID == "" || item.EntityID == "" {
			continue
		}

		var relType models.RelationshipType
		var sourceID, targetID string
		switch entityID {
		case item.ParentID:
			relType = models.RelHasSubsidiary
			sourceID = models.CompanyFIBOID(item.ParentID)
			targetID = models.CompanyFIBOID(item.EntityID)
		case item.EntityID:
			relType = models.RelSubsidiaryOf
			sourceID = models.CompanyFIBOID(item.EntityID)
			targetID = models.CompanyFIBOID(item.ParentID)
		default:
			continue
		}

		props := map[string]any{
			"parent_name": item.ParentName,
			"entity_name": item.EntityName,
		}
		if item.OwnershipPercentage != nil {
			props["ownership_percentage"] = *item.OwnershipPercentage
		}

		relationships = append(relationships, models.Relationship{
			Type:       relType,
			SourceID:   sourceID,
			TargetID:   targetID,
			SourceKind: "company",
			TargetKind: "company",
			Properties: props,
		})
	}

	e.logger.Debug().Str("entity_id", entityID).Int("relationships", len(relationships)).Msg("subsidiaries enriched")
	return relationships, nil
}
