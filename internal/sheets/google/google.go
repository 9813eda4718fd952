package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"finanzas/internal/log"
	ports "finanzas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultRowIndexTTL = 5 * time.Minute

type Config struct {
	SpreadsheetID string
	// SheetName is the tab holding the mirror (default "Ledger").
	SheetName string
	// CredentialsJSON or CredentialsFile hold a service account key. With
	// neither set, GOOGLE_APPLICATION_CREDENTIALS is used.
	CredentialsJSON string
	CredentialsFile string

	// Endpoint overrides the API base URL and disables authentication.
	Endpoint string
}

// Client mirrors ledger rows into one sheet tab, keyed by transaction id in
// column A. Writes are serialized because deleting a row shifts the rows
// below it.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	mu      sync.Mutex
	index   *rowIndex
	sheetID *int64
}

var (
	_ ports.LedgerMirror = (*Client)(nil)
	_ ports.MirrorReader = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Ledger"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        log.FromContext(ctx).WithComponent(log.ComponentSheets),
		index:         newRowIndex(defaultRowIndexTTL),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	if cfg.Endpoint != "" {
		return gsheet.NewService(ctx,
			goption.WithEndpoint(cfg.Endpoint),
			goption.WithoutAuthentication())
	}

	credentialsFile := strings.TrimSpace(cfg.CredentialsFile)
	if cfg.CredentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case credentialsFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) rng(cells string) string {
	return fmt.Sprintf("%s!%s", c.sheetName, cells)
}

// rowsLocked returns the transaction id to row number map, reading column A
// when the cached copy has expired.
func (c *Client) rowsLocked(ctx context.Context) (map[string]int, int, error) {
	if rows, last, ok := c.index.get(); ok {
		return rows, last, nil
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:A")).Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s ids: %w", c.sheetName, err)
	}
	rows, last := indexRows(resp.Values)
	c.index.set(rows, last)
	return rows, last, nil
}

func (c *Client) Upsert(ctx context.Context, row ports.MirrorRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, last, err := c.rowsLocked(ctx)
	if err != nil {
		return err
	}

	if last == 0 {
		if err := c.writeRow(ctx, 1, ports.Header); err != nil {
			c.index.invalidate()
			return fmt.Errorf("write header: %w", err)
		}
		last = 1
		c.index.set(rows, last)
	}

	n, exists := rows[row.TransactionID]
	if !exists {
		n = last + 1
	}
	if err := c.writeRow(ctx, n, row.Values()); err != nil {
		c.index.invalidate()
		return fmt.Errorf("write row %d: %w", n, err)
	}
	if !exists {
		c.index.add(row.TransactionID, n)
	}

	c.logger.DebugContext(ctx, "Mirrored transaction",
		log.FieldTransactionID, row.TransactionID, "row", n, "replaced", exists)
	return nil
}

func (c *Client) writeRow(ctx context.Context, n int, values []string) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	rng := c.rng(fmt.Sprintf("A%d:%s%d", n, columnLetter(len(values)), n))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{cells}}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (c *Client) Remove(ctx context.Context, transactionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, _, err := c.rowsLocked(ctx)
	if err != nil {
		return err
	}
	n, ok := rows[transactionID]
	if !ok {
		return nil
	}

	sheetID, err := c.sheetIDLocked(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:         sheetID,
			Dimension:       "ROWS",
			StartIndex:      int64(n - 1),
			EndIndex:        int64(n),
			ForceSendFields: []string{"SheetId", "StartIndex"},
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		c.index.invalidate()
		return fmt.Errorf("delete row %d: %w", n, err)
	}
	c.index.removeRow(transactionID, n)

	c.logger.DebugContext(ctx, "Removed mirrored transaction",
		log.FieldTransactionID, transactionID, "row", n)
	return nil
}

func (c *Client) sheetIDLocked(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

func (c *Client) Rows(ctx context.Context) ([]ports.MirrorRow, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng(fmt.Sprintf("A:%s", columnLetter(len(ports.Header))))).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.sheetName, err)
	}
	var out []ports.MirrorRow
	for i, raw := range resp.Values {
		cols := toStrings(raw)
		if i == 0 && len(cols) > 0 && cols[0] == ports.Header[0] {
			continue
		}
		row, err := ports.RowFromValues(cols)
		if err != nil {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
