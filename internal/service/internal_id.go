package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	internalIDPrefixLength = 3
	internalIDMaxSequence  = 9999
)

// InternalIDSource lists stored internal ids that may belong to a prefix/year scope.
type InternalIDSource interface {
	ListInternalIDs(ctx context.Context, prefix, year string) ([]string, error)
}

// InternalIDGenerator issues human readable ids shaped like COW/25/0007.
type InternalIDGenerator interface {
	Generate(ctx context.Context, category string, now time.Time) (string, error)
}

type internalIDGenerator struct {
	source InternalIDSource
	logger zerolog.Logger
}

// NewInternalIDGenerator constructs the generator. It only reads; callers persist the id and
// must treat a unique violation as a signal to generate again.
func NewInternalIDGenerator(source InternalIDSource, logger zerolog.Logger) InternalIDGenerator {
	return &internalIDGenerator{
		source: source,
		logger: logger.With().Str("component", "internal_id_generator").Logger(),
	}
}

func (g *internalIDGenerator) Generate(ctx context.Context, category string, now time.Time) (string, error) {
	prefix, err := InternalIDPrefix(category)
	if err != nil {
		return "", err
	}
	year := now.Format("06")

	existing, err := g.source.ListInternalIDs(ctx, prefix, year)
	if err != nil {
		return "", fmt.Errorf("scan internal ids: %w", err)
	}

	highest := 0
	for _, id := range existing {
		sequence, ok := parseSequence(id, prefix, year)
		if !ok {
			g.logger.Warn().Str("internal_id", id).Str("prefix", prefix).Str("year", year).Msg("skipping malformed internal id")
			continue
		}
		if sequence > highest {
			highest = sequence
		}
	}

	next := highest + 1
	if next > internalIDMaxSequence {
		return "", fmt.Errorf("%w: %s/%s", ErrSequenceExhausted, prefix, year)
	}

	return fmt.Sprintf("%s/%s/%04d", prefix, year, next), nil
}

// InternalIDPrefix upper-cases up to the first three characters of the category.
func InternalIDPrefix(category string) (string, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return "", ErrInvalidCategory
	}

	runes := []rune(trimmed)
	if len(runes) > internalIDPrefixLength {
		runes = runes[:internalIDPrefixLength]
	}
	prefix := strings.ToUpper(string(runes))
	if strings.Contains(prefix, "/") {
		return "", fmt.Errorf("%w: %q contains a separator", ErrInvalidCategory, category)
	}

	return prefix, nil
}

func parseSequence(id, prefix, year string) (int, bool) {
	parts := strings.Split(id, "/")
	if len(parts) != 3 || parts[0] != prefix || parts[1] != year {
		return 0, false
	}
	for _, r := range parts[2] {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	sequence, err := strconv.Atoi(parts[2])
	if err != nil || sequence <= 0 {
		return 0, false
	}
	return sequence, true
}
