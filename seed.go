package folio

import (
	"context"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// Seed is the on-disk shape read by `folio seed`. JSON files parse too,
// since JSON is a subset of YAML.
type Seed struct {
	Categories []SeedCategory `yaml:"categories"`
	Articles   []SeedArticle  `yaml:"articles"`
}

type SeedCategory struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type SeedArticle struct {
	Title        string `yaml:"title"`
	Content      string `yaml:"content"`
	Category     string `yaml:"category"`
	FeatureImage string `yaml:"featureImage"`
	Published    bool   `yaml:"published"`
	PostDate     string `yaml:"postDate"` // YYYY-MM-DD or RFC3339; empty means now
}

// LoadSeed reads and decodes a seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("LoadSeed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("LoadSeed %s: %w", path, err)
	}
	return seed, nil
}

// ApplySeed upserts the seed categories and inserts every seed article.
// It returns the number of articles written.
func (s *Store) ApplySeed(ctx context.Context, seed Seed) (int, error) {
	categories := make([]Category, 0, len(seed.Categories))
	for _, c := range seed.Categories {
		categories = append(categories, Category{ID: c.ID, Name: c.Name})
	}
	if err := s.SaveCategories(ctx, categories); err != nil {
		return 0, err
	}

	for i, sa := range seed.Articles {
		in := ArticleInput{
			Title:        sa.Title,
			Content:      sa.Content,
			Category:     sa.Category,
			FeatureImage: sa.FeatureImage,
			Published:    sa.Published,
		}
		if err := validateArticle(&in); err != nil {
			return i, fmt.Errorf("ApplySeed: article %d: %w", i+1, err)
		}
		if err := validation.Validate(in.FeatureImage, is.RequestURI); err != nil {
			return i, fmt.Errorf("ApplySeed: article %d: featureImage: %w", i+1, err)
		}
		created := s.now()
		if sa.PostDate != "" {
			t, err := parseMinDate(sa.PostDate)
			if err != nil {
				return i, fmt.Errorf("ApplySeed: article %d: %w", i+1, err)
			}
			created = t
		}
		if _, err := s.insertArticle(ctx, "ApplySeed", in, created); err != nil {
			return i, err
		}
	}
	return len(seed.Articles), nil
}
