package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

// CSVRow is one parsed line of a bulk upload file
type CSVRow struct {
	Address  string
	Chain    types.ChainID
	Nickname string
	Tag      types.OwnershipTag
}

// ParseWatchlistCSV parses bulk upload content. The format is a header line
// followed by address,chain,nickname,tag rows. Parsing is line-oriented with
// a plain comma split: quoted fields and embedded commas are not supported.
// Rows missing the address or the blockchain are dropped; unrecognized chain
// and tag values fall back to ethereum and research_target.
func ParseWatchlistCSV(content string) []CSVRow {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) <= 1 {
		return nil
	}

	var rows []CSVRow
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		address := strings.TrimSpace(fieldAt(fields, 0))
		chain := strings.TrimSpace(strings.ToLower(fieldAt(fields, 1)))
		if address == "" || chain == "" {
			continue
		}
		rows = append(rows, CSVRow{
			Address:  address,
			Chain:    types.ParseChainID(chain),
			Nickname: strings.TrimSpace(fieldAt(fields, 2)),
			Tag:      types.ParseOwnershipTag(strings.TrimSpace(strings.ToLower(fieldAt(fields, 3)))),
		})
	}
	return rows
}

func fieldAt(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// defaultNickname labels an imported wallet by its address prefix when the
// CSV row carries no nickname, e.g. "Wallet 0x1000..."
func defaultNickname(address string) string {
	if len(address) > 6 {
		address = address[:6]
	}
	return fmt.Sprintf("Wallet %s...", address)
}

// BulkResult summarizes a bulk upload: created entries, rows skipped during
// parsing or as duplicates, and rows whose analysis failed.
type BulkResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// BulkUpload parses CSV content, analyzes every valid row concurrently and
// adds the successful ones to the watchlist in a single batch. Individual
// failures never abort the batch.
func (s *WatchlistService) BulkUpload(ctx context.Context, email, content string) (*BulkResult, error) {
	all := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	dataLines := 0
	for i, line := range all {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		dataLines++
	}

	rows := ParseWatchlistCSV(content)
	result := &BulkResult{Skipped: dataLines - len(rows)}
	if len(rows) == 0 {
		return result, nil
	}

	if err := s.checkSlot(ctx, email, len(rows)); err != nil {
		return nil, err
	}

	// Dedupe against the existing watchlist before spending oracle calls
	pending := make([]CSVRow, 0, len(rows))
	for _, row := range rows {
		exists, err := s.watchlistRepo.ExistsActive(ctx, email, row.Address, row.Chain)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if exists {
			result.Skipped++
			continue
		}
		pending = append(pending, row)
	}

	entries := make([]*models.WatchedWallet, len(pending))
	errs := make([]error, len(pending))
	var wg sync.WaitGroup
	for i, row := range pending {
		wg.Add(1)
		go func(i int, row CSVRow) {
			defer wg.Done()
			entries[i], errs[i] = s.analyzeRow(ctx, email, row)
		}(i, row)
	}
	wg.Wait()

	created := make([]*models.WatchedWallet, 0, len(pending))
	for i := range pending {
		if errs[i] != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pending[i].Address, errs[i]))
			continue
		}
		created = append(created, entries[i])
	}

	if len(created) > 0 {
		if err := s.watchlistRepo.BulkCreate(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to create watchlist entries: %w", err)
		}
	}
	result.Created = len(created)

	return result, nil
}

// analyzeRow runs the oracle for one CSV row and builds its watchlist entry
func (s *WatchlistService) analyzeRow(ctx context.Context, email string, row CSVRow) (*models.WatchedWallet, error) {
	analysis, err := s.oracle.Analyze(ctx, row.Address, row.Chain)
	if err != nil {
		return nil, err
	}

	nickname := row.Nickname
	if nickname == "" {
		nickname = defaultNickname(row.Address)
	}

	now := time.Now().UTC()
	score := analysis.OverallHealthScore
	entry := &models.WatchedWallet{
		CreatedBy:       email,
		WalletAddress:   row.Address,
		Blockchain:      row.Chain,
		Nickname:        nickname,
		OwnershipTag:    row.Tag,
		RiskLevel:       DeriveRiskLevel(analysis.AISummary),
		OverallScore:    &score,
		AISummary:       analysis.AISummary,
		Recommendations: analysis.Recommendations,
		BehaviorProfile: models.BehaviorProfile{
			Tag:     analysis.BehaviorProfile.Tag,
			Summary: analysis.BehaviorProfile.Summary,
			Details: analysis.BehaviorProfile.Details,
		},
		IsActive:    true,
		LastChecked: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, f := range analysis.HealthScoreBreakdown {
		entry.HealthScoreBreakdown = append(entry.HealthScoreBreakdown, models.ScoreFactor{
			Category:    f.Category,
			ScoreImpact: f.ScoreImpact,
			Description: f.Description,
		})
	}
	for _, p := range analysis.ScoreTrend {
		entry.ScoreTrend = append(entry.ScoreTrend, models.TrendPoint{Date: p.Date, Score: p.Score})
	}
	return entry, nil
}
