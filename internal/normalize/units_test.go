package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeNetValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		unit      string
		netValue  float64
		prodName  string
		wantValue float64
		wantUnit  string
	}{
		{
			name:      "kilogram rescales to gram",
			unit:      "kg",
			netValue:  1.5,
			prodName:  "Gạo ST25 1.5kg",
			wantValue: 1500,
			wantUnit:  "g",
		},
		{
			name:      "liter rescales to milliliter",
			unit:      "lít",
			netValue:  1,
			prodName:  "Dầu ăn cao cấp 1 lít",
			wantValue: 1000,
			wantUnit:  "ml",
		},
		{
			name:      "kg embedded in name wins for unrecognized unit",
			unit:      "túi",
			netValue:  2,
			prodName:  "Khoai tây Đà Lạt túi 2kg",
			wantValue: 2000,
			wantUnit:  "túi",
		},
		{
			name:      "bag of fruit assumes 0.7kg",
			unit:      "túi",
			netValue:  0,
			prodName:  "Quýt đường túi (khoảng 5 trái)",
			wantValue: 700,
			wantUnit:  "túi",
		},
		{
			name:      "egg tray sums counted eggs",
			unit:      "hộp",
			netValue:  0,
			prodName:  "Trứng gà tươi hộp 10 quả",
			wantValue: 10,
			wantUnit:  "hộp",
		},
		{
			name:      "carton of N items of Y each",
			unit:      "thùng",
			netValue:  0,
			prodName:  "Bia lon thùng 24 lon 330ml",
			wantValue: 7920,
			wantUnit:  "thùng",
		},
		{
			name:      "size before pack count",
			unit:      "lốc",
			netValue:  0,
			prodName:  "Nước ngọt 330ml lốc 6",
			wantValue: 1980,
			wantUnit:  "ml",
		},
		{
			name:      "combo pattern multiplies count and size",
			unit:      "combo",
			netValue:  0,
			prodName:  "Combo 2 x 250ml nước tương",
			wantValue: 500,
			wantUnit:  "ml",
		},
		{
			name:      "trailing size token in name",
			unit:      "gói",
			netValue:  0,
			prodName:  "Snack vị tôm cay 50g",
			wantValue: 50,
			wantUnit:  "g",
		},
		{
			name:      "vendor value kept when name is silent",
			unit:      "cái",
			netValue:  3,
			prodName:  "Ly nhựa trong suốt",
			wantValue: 3,
			wantUnit:  "cái",
		},
		{
			name:      "zero vendor value falls back to one",
			unit:      "g",
			netValue:  0,
			prodName:  "Muối tinh",
			wantValue: 1,
			wantUnit:  "g",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			value, unit := NormalizeNetValue(tc.unit, tc.netValue, tc.prodName)
			require.InDelta(t, tc.wantValue, value, 0.001)
			require.Equal(t, tc.wantUnit, unit)
		})
	}
}

func TestNormalizeNetValueAlwaysPositive(t *testing.T) {
	t.Parallel()

	inputs := []struct {
		unit     string
		netValue float64
		prodName string
	}{
		{"", 0, ""},
		{"kg", 0, "Gạo"},
		{"hộp", -1, "hộp quà"},
	}
	for _, in := range inputs {
		value, _ := NormalizeNetValue(in.unit, in.netValue, in.prodName)
		require.Positive(t, value)
	}
}
