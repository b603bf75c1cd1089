package moex

import (
	"testing"

	"BondPulse/pkg/util"
)

func TestTableRows(t *testing.T) {
	tbl := &Table{
		Columns: []string{"SECID", "COUPONVALUE", "LISTLEVEL"},
		Data: [][]interface{}{
			{"RU000A0JX0J2", 35.4, 1.0},
			{"RU000A0ZZ079", nil, 2.0},
			{"SHORTROW"},
		},
	}
	rows := tbl.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].String("SECID") != "RU000A0JX0J2" {
		t.Fatalf("secid = %q", rows[0].String("SECID"))
	}
	if v := rows[0].Float("COUPONVALUE"); v == nil || *v != 35.4 {
		t.Fatalf("coupon = %v", v)
	}
	if v := rows[0].Int("LISTLEVEL"); v == nil || *v != 1 {
		t.Fatalf("listlevel = %v", v)
	}
	if v := rows[1].Float("COUPONVALUE"); v != nil {
		t.Fatalf("nil cell must stay nil, got %v", *v)
	}
	if v := rows[2].Float("COUPONVALUE"); v != nil {
		t.Fatalf("short row cell must be absent")
	}
}

func TestRowStringCellNumbers(t *testing.T) {
	tbl := &Table{
		Columns: []string{"YIELD"},
		Data:    [][]interface{}{{"8,15"}},
	}
	rows := tbl.Rows()
	// Comma decimals in string cells still parse as floats.
	if v := rows[0].Float("YIELD"); v == nil || *v != 8.15 {
		t.Fatalf("yield = %v", v)
	}
}

func TestParseCurveTable(t *testing.T) {
	tbl := &Table{
		Columns: []string{"Дата", "Время", "Срок 1 лет", "Срок 5 лет"},
		Data: [][]interface{}{
			{"25.08.2026", "10:00:00", 5.1, 6.4},
			{"26.08.2026", "18:45:00", "5,20", 6.5},
			{"0000-00-00", "12:00:00", 5.0, 6.0}, // unparseable date, dropped
			{"24.08.2026", nil, nil, nil},        // no tenor data, dropped
		},
	}
	records := parseCurveTable(tbl)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if got := util.FormatCurveDate(records[1].TradeDate); got != "26.08.2026" {
		t.Fatalf("date = %s", got)
	}
	if records[1].TradeTime != "18:45:00" {
		t.Fatalf("trade time = %q", records[1].TradeTime)
	}
	if records[1].Tenors["Срок 1 лет"] != 5.2 {
		t.Fatalf("tenor = %v", records[1].Tenors)
	}
	if len(records[0].TenorOrder) != 2 || records[0].TenorOrder[0] != "Срок 1 лет" {
		t.Fatalf("tenor order = %v", records[0].TenorOrder)
	}
}
