package tui

import (
	"strings"

	"github.com/jmylchreest/soundux/internal/core"
	"github.com/jmylchreest/soundux/internal/model"
)

// isFilterExpression reports whether query is a field filter such as
// "ext=wav,size>1MB" rather than plain search text.
func isFilterExpression(query string) bool {
	if query == "" {
		return false
	}
	expr, err := core.ParseFilter(query)
	return err == nil && len(expr.Conditions) > 0
}

// filterSounds applies the search box to sounds. Field filters are applied
// with core.FilterWithExpr; anything else is a case-insensitive name or path
// match.
func filterSounds(sounds []model.Sound, query string) []model.Sound {
	query = strings.TrimSpace(query)
	if query == "" {
		return sounds
	}

	if isFilterExpression(query) {
		expr, _ := core.ParseFilter(query)
		return core.FilterWithExpr(sounds, expr)
	}

	return core.Search(sounds, query)
}
