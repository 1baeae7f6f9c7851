package store

import "strings"

// DefaultPageSize applies when a search request does not set a page size.
const DefaultPageSize = 20

// SearchInput narrows and pages a listing. All filters are conjunctive;
// empty filters match everything. Page is 1-based and values below 1 are
// clamped; PageSize values below 1 fall back to DefaultPageSize.
type SearchInput struct {
	Query      string `json:"q,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Ingredient string `json:"ingredient,omitempty"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// Summary is the listing projection of a record.
type Summary struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Tags          []string `json:"tags,omitempty"`
	DishImagePath string   `json:"dish_image_path,omitempty"`
}

// SearchOutput carries one page of matches. Total counts all matches
// before paging, so clients can render page controls.
type SearchOutput struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Items    []Summary `json:"items"`
}

// Search scans the store, applies the filters, and returns the requested
// page in slug order. A page past the end yields an empty Items slice
// with Total unchanged.
func (s *Store) Search(in SearchInput) (*SearchOutput, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	var matches []Summary
	for _, e := range entries {
		if !matchRecipe(e, in) {
			continue
		}
		matches = append(matches, Summary{
			Slug:          e.Slug,
			Title:         e.Recipe.Title,
			Tags:          e.Recipe.Tags,
			DishImagePath: e.Recipe.DishImagePath,
		})
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 {
		size = DefaultPageSize
	}

	out := &SearchOutput{
		Total:    len(matches),
		Page:     page,
		PageSize: size,
		Items:    []Summary{},
	}
	start := (page - 1) * size
	if start < len(matches) {
		end := start + size
		if end > len(matches) {
			end = len(matches)
		}
		out.Items = matches[start:end]
	}
	return out, nil
}

func matchRecipe(e Entry, in SearchInput) bool {
	if q := strings.ToLower(strings.TrimSpace(in.Query)); q != "" {
		hit := strings.Contains(strings.ToLower(e.Recipe.Title), q)
		for _, t := range e.Recipe.Tags {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(t), q)
		}
		if !hit {
			return false
		}
	}
	if tag := strings.ToLower(strings.TrimSpace(in.Tag)); tag != "" {
		hit := false
		for _, t := range e.Recipe.Tags {
			if strings.ToLower(t) == tag {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if ing := strings.ToLower(strings.TrimSpace(in.Ingredient)); ing != "" {
		hit := false
		for _, i := range e.Recipe.Ingredients {
			if strings.Contains(strings.ToLower(i.Name), ing) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
