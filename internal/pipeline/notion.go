// =============================================================================
// notion.go - Notionデータベースへの記事クリップ
// =============================================================================
package pipeline

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

// NotionClipper は確定レコードをNotionデータベースへ保存する。
type NotionClipper struct {
	client *notionapi.Client
	dbID   notionapi.DatabaseID
	log    zerolog.Logger
}

// NewNotionClipper はNotionクライアントを作る。
func NewNotionClipper(cfg *Config, log zerolog.Logger) (*NotionClipper, error) {
	if cfg.NotionToken == "" {
		return nil, fmt.Errorf("NOTION_TOKEN is required")
	}

	nc := &NotionClipper{
		client: notionapi.NewClient(notionapi.Token(cfg.NotionToken)),
		log:    log,
	}
	if cfg.NotionDatabaseID != "" {
		nc.dbID = notionapi.DatabaseID(cfg.NotionDatabaseID)
	}
	return nc, nil
}

// CreateDatabase は記事クリップ用のデータベースを新規作成する。
func (nc *NotionClipper) CreateDatabase(ctx context.Context, pageID string) error {
	if pageID == "" {
		return fmt.Errorf("parent page ID is required to create a new database")
	}

	dbRequest := &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(pageID),
		},
		Title: []notionapi.RichText{
			{Text: &notionapi.Text{Content: "AI News Clippings"}},
		},
		Properties: notionapi.PropertyConfigs{
			"Title": notionapi.TitlePropertyConfig{
				Type: notionapi.PropertyConfigTypeTitle,
			},
			"URL": notionapi.URLPropertyConfig{
				Type: notionapi.PropertyConfigTypeURL,
			},
			"Published": notionapi.DatePropertyConfig{
				Type: notionapi.PropertyConfigTypeDate,
			},
			"Source": notionapi.RichTextPropertyConfig{
				Type: notionapi.PropertyConfigTypeRichText,
			},
			"Summary": notionapi.RichTextPropertyConfig{
				Type: notionapi.PropertyConfigTypeRichText,
			},
			"BodyChars": notionapi.NumberPropertyConfig{
				Type: notionapi.PropertyConfigTypeNumber,
				Number: notionapi.NumberFormat{
					Format: notionapi.FormatNumber,
				},
			},
		},
	}

	db, err := nc.client.Database.Create(ctx, dbRequest)
	if err != nil {
		return fmt.Errorf("failed to create Notion database: %w", err)
	}

	nc.dbID = notionapi.DatabaseID(db.ID)
	nc.log.Info().Str("database", string(db.ID)).Msg("Notion database created")
	return nil
}

// ClipRecord は1レコードをNotionデータベースへ追加する。
func (nc *NotionClipper) ClipRecord(ctx context.Context, r ArticleRecord) error {
	if nc.dbID == "" {
		return fmt.Errorf("database ID not set")
	}

	properties := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Text: &notionapi.Text{Content: r.Title}},
			},
		},
		"URL": notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  r.URL,
		},
		"Source": notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{Text: &notionapi.Text{Content: SourceHost(r.URL)}},
			},
		},
		"BodyChars": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(r.BodyChars),
		},
	}

	if !r.PublishedAt.IsZero() {
		start := notionapi.Date(r.PublishedAt)
		properties["Published"] = notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &start},
		}
	}

	if r.Summary != "" {
		properties["Summary"] = notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				// Notionのrich_text上限は2000文字
				{Text: &notionapi.Text{Content: truncateRunes(r.Summary, 2000)}},
			},
		}
	}

	pageRequest := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: nc.dbID,
		},
		Properties: properties,
	}

	if _, err := nc.client.Page.Create(ctx, pageRequest); err != nil {
		return fmt.Errorf("failed to clip record: %w", err)
	}
	return nil
}

// ClipAll は全レコードを順にクリップする。個別の失敗は記録して続行する。
func (nc *NotionClipper) ClipAll(ctx context.Context, records []ArticleRecord) int {
	clipped := 0
	for _, r := range records {
		if err := nc.ClipRecord(ctx, r); err != nil {
			nc.log.Warn().Str("url", r.URL).Err(err).Msg("notion clip failed")
			continue
		}
		clipped++
	}
	return clipped
}
