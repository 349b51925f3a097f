// Package seed embeds the built-in reference spaces used when no
// reference database is configured.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/walkies/internal/core/domain"
)

//go:embed spaces.json
var spacesJSON []byte

// Spaces returns the built-in reference spaces.
func Spaces() ([]domain.Space, error) {
	var spaces []domain.Space
	if err := json.Unmarshal(spacesJSON, &spaces); err != nil {
		return nil, fmt.Errorf("decode seed spaces: %w", err)
	}
	return spaces, nil
}
