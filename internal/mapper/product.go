package mapper

import "pos-system/internal/domain"

// ProductFromRecord builds a Product from a storage record. A missing active
// flag defaults to true (older rows predate the column), a missing by-weight
// flag to false, and a null featured day normalizes to unset.
func ProductFromRecord(rec domain.Record) domain.Product {
	return domain.Product{
		ID:          str(rec, "id"),
		Name:        str(rec, "name"),
		Description: str(rec, "description"),
		Price:       num(rec, "price"),
		Category:    str(rec, "category"),
		ImageURL:    str(rec, "image_url"),
		Active:      boolOr(rec, "is_active", true),
		FeaturedDay: optInt(rec, "featured_day"),
		ByWeight:    boolOr(rec, "is_by_weight", false),
	}
}

// ProductToRecord is the inverse of ProductFromRecord; a round trip through
// both reproduces every field.
func ProductToRecord(p domain.Product) domain.Record {
	rec := domain.Record{
		"id":           p.ID,
		"name":         p.Name,
		"description":  p.Description,
		"price":        p.Price,
		"category":     p.Category,
		"image_url":    p.ImageURL,
		"is_active":    p.Active,
		"is_by_weight": p.ByWeight,
	}
	if p.FeaturedDay != nil {
		rec["featured_day"] = float64(*p.FeaturedDay)
	}
	return rec
}
