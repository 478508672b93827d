package sheet

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"minhng/pricewatch/logger"
	"minhng/pricewatch/pkg/errors"
)

// GoogleStore implements Store over a Google Sheets worksheet
type GoogleStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
}

// NewGoogleStore creates a sheet store authenticated with a service account.
// Either a credentials file path or the inline credentials JSON must be set.
func NewGoogleStore(ctx context.Context, spreadsheetID, sheetName, credentialsFile, credentialsJSON string) (*GoogleStore, error) {
	var opt option.ClientOption
	switch {
	case credentialsFile != "":
		opt = option.WithCredentialsFile(credentialsFile)
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	default:
		return nil, errors.NewConfiguration("google credentials are required", nil)
	}

	service, err := sheets.NewService(ctx, opt)
	if err != nil {
		return nil, errors.NewSheet("google", "failed to create sheets service", err)
	}

	return &GoogleStore{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           logger.ForSheet(),
	}, nil
}

// LoadAllRows reads the whole worksheet, header row first
func (g *GoogleStore) LoadAllRows(ctx context.Context) ([][]interface{}, error) {
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, g.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, errors.NewSheet("google", "failed to read sheet", err)
	}
	g.log.Debug().Int("rows", len(resp.Values)).Msg("Loaded sheet")
	return resp.Values, nil
}

// ReplaceAllRows clears the worksheet and writes the records back in one
// update. Values go in RAW so price strings are not reinterpreted.
func (g *GoogleStore) ReplaceAllRows(ctx context.Context, records [][]interface{}) error {
	_, err := g.service.Spreadsheets.Values.Clear(g.spreadsheetID, g.sheetName, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return errors.NewSheet("google", "failed to clear sheet", err)
	}

	valueRange := &sheets.ValueRange{Values: records}
	startCell := fmt.Sprintf("%s!A1", g.sheetName)
	_, err = g.service.Spreadsheets.Values.Update(g.spreadsheetID, startCell, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return errors.NewSheet("google", "failed to write sheet", err)
	}
	g.log.Debug().Int("rows", len(records)).Msg("Rewrote sheet")
	return nil
}
