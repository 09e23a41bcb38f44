package lot

import (
	"sort"
	"strconv"
	"time"
)

// RowView is the map rendering of a single row of spots.
type RowView struct {
	RowID     string `json:"row_id"`
	Spots     []Spot `json:"spots"`
	Available int    `json:"available"`
	Occupied  int    `json:"occupied"`
	Disabled  int    `json:"disabled"`
	Total     int    `json:"total"`
}

// LotView is the full map snapshot pushed to clients: every row, every spot,
// plus overall counts. GeneratedAt lets consumers reconcile snapshots that
// arrive out of order.
type LotView struct {
	LotID       int       `json:"lot_id"`
	Rows        []RowView `json:"rows"`
	Available   int       `json:"available"`
	Occupied    int       `json:"occupied"`
	Disabled    int       `json:"disabled"`
	Total       int       `json:"total"`
	GeneratedAt time.Time `json:"generated_at"`
}

// splitSpotNumber breaks "A12" into ("A", 12, true). A spot number without a
// numeric suffix compares purely lexicographically.
func splitSpotNumber(s string) (string, int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}

// lessSpotNumber orders spot numbers by prefix first, then by numeric suffix,
// so A2 sorts before A10.
func lessSpotNumber(a, b string) bool {
	ap, an, aok := splitSpotNumber(a)
	bp, bn, bok := splitSpotNumber(b)
	if ap != bp {
		return ap < bp
	}
	if aok && bok {
		if an != bn {
			return an < bn
		}
		return a < b
	}
	return a < b
}

// GroupByRow partitions spots by row and computes per-row and overall status
// counts. Pure and order-stable: the same spot set always yields the same
// view regardless of input order.
func GroupByRow(lotID int, spots []Spot) LotView {
	byRow := make(map[string][]Spot)
	for _, s := range spots {
		byRow[s.RowID] = append(byRow[s.RowID], s)
	}

	rowIDs := make([]string, 0, len(byRow))
	for rowID := range byRow {
		rowIDs = append(rowIDs, rowID)
	}
	sort.Strings(rowIDs)

	view := LotView{LotID: lotID, Rows: make([]RowView, 0, len(rowIDs)), GeneratedAt: time.Now().UTC()}
	for _, rowID := range rowIDs {
		rowSpots := byRow[rowID]
		sort.Slice(rowSpots, func(i, j int) bool {
			return lessSpotNumber(rowSpots[i].SpotNumber, rowSpots[j].SpotNumber)
		})

		row := RowView{RowID: rowID, Spots: rowSpots, Total: len(rowSpots)}
		for _, s := range rowSpots {
			switch s.Status {
			case StatusAvailable:
				row.Available++
			case StatusOccupied:
				row.Occupied++
			case StatusDisabled:
				row.Disabled++
			}
		}

		view.Available += row.Available
		view.Occupied += row.Occupied
		view.Disabled += row.Disabled
		view.Total += row.Total
		view.Rows = append(view.Rows, row)
	}

	return view
}
