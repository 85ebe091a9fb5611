package holdings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
)

// ArticleInput describes an article found in a storage item.
type ArticleInput struct {
	PageNumber int      `json:"page_number"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Content    string   `json:"content"`
	Keywords   []string `json:"keywords"`
}

// CatalogArticle records an article printed in storage item storageID.
func (l *Ledger) CatalogArticle(ctx context.Context, storageID uint, in ArticleInput) (*entities.Article, error) {
	if len(in.Keywords) > entities.MaxArticleKeywords {
		return nil, fmt.Errorf("%w: at most %d keywords, got %d",
			database.ErrInvalidArgument, entities.MaxArticleKeywords, len(in.Keywords))
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", database.ErrInvalidArgument)
	}
	if in.PageNumber < 0 {
		return nil, fmt.Errorf("%w: page number must not be negative", database.ErrInvalidArgument)
	}

	article := &entities.Article{
		StorageID:  storageID,
		PageNumber: in.PageNumber,
		Title:      in.Title,
		Author:     in.Author,
		Content:    in.Content,
	}
	article.SetKeywords(in.Keywords)

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow[entities.Storage](tx, "storage", storageID); err != nil {
			return err
		}
		if err := tx.Create(article).Error; err != nil {
			return fmt.Errorf("failed to catalog article: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (l *Ledger) GetArticle(ctx context.Context, id uint) (*entities.Article, error) {
	article, err := database.FindByID[entities.Article](l.db.WithContext(ctx), id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to get article %d: %w", id, err)
	}
	return article, err
}

func (l *Ledger) DeleteArticle(ctx context.Context, id uint) error {
	result := l.db.WithContext(ctx).Delete(&entities.Article{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete article %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// FindArticlesByKeyword returns articles carrying keyword in any of their
// keyword slots. Matching is exact.
func (l *Ledger) FindArticlesByKeyword(ctx context.Context, keyword string) ([]entities.Article, error) {
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", database.ErrInvalidArgument)
	}

	var articles []entities.Article
	err := l.db.WithContext(ctx).
		Where("keyword1 = ? OR keyword2 = ? OR keyword3 = ? OR keyword4 = ? OR keyword5 = ?",
			keyword, keyword, keyword, keyword, keyword).
		Order("id ASC").
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find articles: %w", err)
	}
	return articles, nil
}
