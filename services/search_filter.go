package services

import (
	"net/url"
	"strconv"
	"strings"

	"motomar-api/models"
	"motomar-api/repositories"
	"motomar-api/utils"
)

// ParseListingQuery turns flat query parameters into a search descriptor.
// Pagination and sorting are clamped to safe values; malformed filter values
// are reported as field errors.
func ParseListingQuery(values url.Values) (repositories.ListingQuery, error) {
	p := &queryParser{values: values}

	q := repositories.ListingQuery{
		Filters: repositories.ListingFilters{
			Brand:      p.text("brand"),
			Model:      p.text("model"),
			City:       p.text("city"),
			Department: p.text("department"),
			Text:       p.text("q"),

			SOATValid:           p.boolean("soat_valid"),
			TechInspectionValid: p.boolean("tech_inspection_valid"),
			PapersInOrder:       p.boolean("papers_in_order"),

			YearMin:         p.integer("year_min"),
			YearMax:         p.integer("year_max"),
			PriceMin:        p.decimal("price_min"),
			PriceMax:        p.decimal("price_max"),
			DisplacementMin: p.integer("displacement_min"),
			DisplacementMax: p.integer("displacement_max"),
			MileageMax:      p.integer("mileage_max"),
		},
		Sort:  parseSort(values.Get("order_by"), values.Get("order")),
		Page:  clampPage(values.Get("page")),
		Limit: clampLimit(values.Get("limit")),
	}

	if raw := p.text("fuel"); raw != "" {
		v := models.FuelType(models.NormalizeEnum(raw))
		if p.check("fuel", v.Valid(), "must be one of GASOLINE, ELECTRIC, HYBRID") {
			q.Filters.Fuel = &v
		}
	}
	if raw := p.text("transmission"); raw != "" {
		v := models.Transmission(models.NormalizeEnum(raw))
		if p.check("transmission", v.Valid(), "must be one of MANUAL, AUTOMATIC, SEMI_AUTOMATIC") {
			q.Filters.Transmission = &v
		}
	}
	if raw := p.text("vehicle_state"); raw != "" {
		v := models.VehicleState(models.NormalizeEnum(raw))
		if p.check("vehicle_state", v.Valid(), "must be one of NEW, USED, FOR_PARTS") {
			q.Filters.VehicleState = &v
		}
	}
	if raw := p.text("condition"); raw != "" {
		v := models.Condition(models.NormalizeEnum(raw))
		if p.check("condition", v.Valid(), "must be one of EXCELLENT, VERY_GOOD, GOOD, FAIR, NEEDS_REPAIR") {
			q.Filters.Condition = &v
		}
	}

	if len(p.errs) > 0 {
		return repositories.ListingQuery{}, utils.NewValidationError("Invalid search parameters", p.errs...)
	}
	return q, nil
}

type queryParser struct {
	values url.Values
	errs   []utils.FieldError
}

func (p *queryParser) text(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) check(key string, ok bool, message string) bool {
	if !ok {
		p.errs = append(p.errs, utils.FieldError{Field: key, Message: message})
	}
	return ok
}

func (p *queryParser) integer(key string) *int {
	raw := p.text(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if !p.check(key, err == nil, "must be an integer") {
		return nil
	}
	return &v
}

func (p *queryParser) decimal(key string) *float64 {
	raw := p.text(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if !p.check(key, err == nil, "must be a number") {
		return nil
	}
	return &v
}

func (p *queryParser) boolean(key string) *bool {
	raw := strings.ToLower(p.text(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if !p.check(key, err == nil, "must be true or false") {
		return nil
	}
	return &v
}

// parseSort accepts camelCase or snake_case field names; anything unknown
// falls back to newest first.
func parseSort(orderBy, order string) repositories.ListingSort {
	field := strings.TrimSpace(orderBy)
	if field == "createdAt" {
		field = "created_at"
	}
	if _, ok := repositories.SortColumn(field); !ok {
		return repositories.ListingSort{Field: "created_at", Desc: true}
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "asc":
		return repositories.ListingSort{Field: field, Desc: false}
	default:
		return repositories.ListingSort{Field: field, Desc: true}
	}
}

func clampPage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	if page > repositories.MaxListingPage {
		return repositories.MaxListingPage
	}
	return page
}

func clampLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return repositories.DefaultListingLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return repositories.DefaultListingLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > repositories.MaxListingLimit {
		return repositories.MaxListingLimit
	}
	return limit
}
