package sheetrows

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Endpoint paths relative to Config.BaseURL.

func sheetsPath() string {
	return "/sheets"
}

func sheetPath(sheetID int64) string {
	return fmt.Sprintf("/sheets/%d", sheetID)
}

func rowsPath(sheetID int64) string {
	return fmt.Sprintf("/sheets/%d/rows", sheetID)
}

func rowPath(sheetID, rowID int64) string {
	return fmt.Sprintf("/sheets/%d/rows/%d", sheetID, rowID)
}

func copyRowsPath(sheetID int64) string {
	return fmt.Sprintf("/sheets/%d/rows/copy", sheetID)
}

func moveRowsPath(sheetID int64) string {
	return fmt.Sprintf("/sheets/%d/rows/move", sheetID)
}

func rowEmailsPath(sheetID int64) string {
	return fmt.Sprintf("/sheets/%d/rows/emails", sheetID)
}

func cellHistoryPath(sheetID, rowID, columnID int64) string {
	return fmt.Sprintf("/sheets/%d/rows/%d/columns/%d/history", sheetID, rowID, columnID)
}

// joinIDs renders ids as the comma separated list used by query parameters.
func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseIDs is the inverse of the ids query parameter encoding.
func ParseIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
