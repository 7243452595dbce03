// Package taxonomy holds the closed canonical category set and the static
// per-chain tables remapping vendor category names onto it. The tables are
// hand-curated data; vendor names absent from them are intentionally
// dropped from the pipeline.
package taxonomy

import (
	"strings"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

// Canonical category names. Every persisted product belongs to exactly
// one of these; there is no "uncategorized" bucket.
const (
	FreshMeat    = "Fresh Meat"
	Seafood      = "Seafood & Fish Balls"
	ColdCuts     = "Cold Cuts: Sausages & Ham"
	InstantFoods = "Instant Foods"
	FreshFruits  = "Fresh Fruits"
	Vegetables   = "Vegetables"
	Cereals      = "Cereals & Grains"
	Grains       = "Grains & Staples"
	Seasonings   = "Seasonings"
	Milk         = "Milk"
	Yogurt       = "Yogurt"
	Alcoholic    = "Alcoholic Beverages"
	Beverages    = "Beverages"
	Cakes        = "Cakes"
	Candies      = "Candies"
	Snacks       = "Snacks"
	DriedFruits  = "Dried Fruits"
	FruitJam     = "Fruit Jam"
	IceCream     = "Ice Cream & Cheese"
)

// Categories lists every canonical category, in stable order.
func Categories() []string {
	return []string{
		FreshMeat, Seafood, ColdCuts, InstantFoods, FreshFruits,
		Vegetables, Cereals, Grains, Seasonings, Milk, Yogurt,
		Alcoholic, Beverages, Cakes, Candies, Snacks, DriedFruits,
		FruitJam, IceCream,
	}
}

// Collections lists the destination collection names for every canonical
// category.
func Collections() []string {
	categories := Categories()
	collections := make([]string, 0, len(categories))
	for _, category := range categories {
		collections = append(collections, CollectionName(category))
	}
	return collections
}

var bhxMapping = map[string]string{
	// Meat, fish, eggs
	"Thịt heo":                FreshMeat,
	"Thịt bò":                 FreshMeat,
	"Thịt gà, vịt, chim":      FreshMeat,
	"Thịt sơ chế":             FreshMeat,
	"Trứng gà, vịt, cút":      FreshMeat,
	"Cá, hải sản, khô":        Seafood,
	"Cá hộp":                  InstantFoods,
	"Lạp xưởng":               ColdCuts,
	"Xúc xích":                ColdCuts,
	"Heo, bò, pate hộp":       InstantFoods,
	"Chả giò, chả ram":        InstantFoods,
	"Chả lụa, thịt nguội":     ColdCuts,
	"Xúc xích, lạp xưởng tươi": ColdCuts,
	"Cá viên, bò viên":        InstantFoods,
	"Thịt, cá đông lạnh":      InstantFoods,

	// Produce
	"Trái cây":          FreshFruits,
	"Rau lá":            Vegetables,
	"Củ, quả":           Vegetables,
	"Nấm các loại":      Vegetables,
	"Rau, củ làm sẵn":   Vegetables,
	"Rau củ đông lạnh":  Vegetables,

	// Vegetarian
	"Đồ chay ăn liền":       InstantFoods,
	"Đậu hũ, đồ chay khác":  InstantFoods,
	"Đậu hũ, tàu hũ":        InstantFoods,

	// Grains and staples
	"Ngũ cốc":           Cereals,
	"Ngũ cốc, yến mạch": Cereals,
	"Gạo các loại":      Grains,
	"Bột các loại":      Grains,
	"Đậu, nấm, đồ khô":  Grains,

	// Noodles and instant meals
	"Mì ăn liền":             InstantFoods,
	"Phở, bún ăn liền":       InstantFoods,
	"Hủ tiếu, miến":          InstantFoods,
	"Miến, hủ tiếu, phở khô": InstantFoods,
	"Mì Ý, mì trứng":         InstantFoods,
	"Cháo gói, cháo tươi":    InstantFoods,
	"Bún các loại":           InstantFoods,
	"Nui các loại":           InstantFoods,
	"Bánh tráng các loại":    InstantFoods,
	"Bánh phồng, bánh đa":    InstantFoods,
	"Bánh gạo Hàn Quốc":      Cakes,

	// Seasonings and cooking
	"Nước mắm":                    Seasonings,
	"Nước tương":                  Seasonings,
	"Tương, chao các loại":        Seasonings,
	"Tương ớt - đen, mayonnaise":  Seasonings,
	"Dầu ăn":                      Seasonings,
	"Dầu hào, giấm, bơ":           Seasonings,
	"Gia vị nêm sẵn":              Seasonings,
	"Muối":                        Seasonings,
	"Hạt nêm, bột ngọt, bột canh": Seasonings,
	"Tiêu, sa tế, ớt bột":         Seasonings,
	"Bột nghệ, tỏi, hồi, quế,...": Seasonings,
	"Nước chấm, mắm":              Seasonings,
	"Mật ong, bột nghệ":           Seasonings,
	"Cá mắm, dưa mắm":             Seasonings,
	"Đường":                       Seasonings,
	"Nước cốt dừa lon":            Seasonings,

	// Dairy
	"Sữa tươi":             Milk,
	"Sữa đặc":              Milk,
	"Sữa pha sẵn":          Milk,
	"Sữa hạt, sữa đậu":     Milk,
	"Sữa ca cao, lúa mạch": Milk,
	"Sữa trái cây, trà sữa": Milk,
	"Bơ sữa, phô mai":      Milk,
	"Sữa chua ăn":          Yogurt,
	"Sữa chua uống liền":   Yogurt,
	"Sữa chua uống":        Yogurt,

	// Drinks
	"Bia, nước có cồn":        Alcoholic,
	"Rượu":                    Alcoholic,
	"Nước trà":                Beverages,
	"Nước ngọt":               Beverages,
	"Nước ép trái cây":        Beverages,
	"Nước yến":                Beverages,
	"Nước tăng lực, bù khoáng": Beverages,
	"Nước suối":               Beverages,
	"Cà phê hoà tan":          Beverages,
	"Cà phê pha phin":         Beverages,
	"Cà phê lon":              Beverages,
	"Trà khô, túi lọc":        Beverages,

	// Sweets and snacks
	"Bánh tươi, Sandwich":      Cakes,
	"Bánh bông lan":            Cakes,
	"Bánh quy":                 Cakes,
	"Bánh snack, rong biển":    Snacks,
	"Bánh Chocopie":            Cakes,
	"Bánh gạo":                 Cakes,
	"Bánh quế":                 Cakes,
	"Bánh que":                 Cakes,
	"Bánh xốp":                 Cakes,
	"Kẹo cứng":                 Candies,
	"Kẹo dẻo, kẹo marshmallow": Candies,
	"Kẹo singum":               Candies,
	"Socola":                   Candies,
	"Trái cây sấy":             DriedFruits,
	"Hạt khô":                  DriedFruits,
	"Rong biển các loại":       Snacks,
	"Rau câu, thạch dừa":       FruitJam,
	"Mứt trái cây":             FruitJam,
	"Cơm cháy, bánh tráng":     Snacks,

	// Prepared and frozen
	"Làm sẵn, ăn liền":      InstantFoods,
	"Sơ chế, tẩm ướp":       InstantFoods,
	"Nước lẩu, viên thả lẩu": InstantFoods,
	"Kim chi, đồ chua":      InstantFoods,
	"Mandu, há cảo, sủi cảo": InstantFoods,
	"Bánh bao, bánh mì, pizza": InstantFoods,
	"Kem cây, kem hộp":      IceCream,
	"Bánh flan, thạch, chè": Cakes,
	"Trái cây hộp, siro":    FruitJam,
	"Khô chế biến sẵn":      InstantFoods,
}

var winmartMapping = map[string]string{
	// Dairy
	"Sữa các loại":            Milk,
	"Sữa Tươi":                Milk,
	"Sữa Hạt - Sữa Đậu":       Milk,
	"Sữa Bột":                 Milk,
	"Bơ Sữa - Phô Mai":        Milk,
	"Sữa đặc":                 Milk,
	"Sữa Chua - Váng Sữa":     Yogurt,
	"Sữa Bột - Sữa Dinh Dưỡng": Milk,

	// Produce
	"Rau - Củ - Trái Cây": Vegetables,
	"Rau Lá":              Vegetables,
	"Củ, Quả":             Vegetables,
	"Trái cây tươi":       FreshFruits,

	// Meat, seafood, eggs
	"Thịt - Hải Sản Tươi": FreshMeat,
	"Thịt":                FreshMeat,
	"Hải Sản":             Seafood,
	"Trứng - Đậu Hũ":      FreshMeat,
	"Trứng":               FreshMeat,
	"Đậu hũ":              InstantFoods,
	"Thịt Đông Lạnh":      InstantFoods,
	"Hải Sản Đông Lạnh":   InstantFoods,

	// Sweets and snacks
	"Bánh Kẹo":                Cakes,
	"Bánh Xốp - Bánh Quy":     Cakes,
	"Kẹo - Chocolate":         Candies,
	"Bánh Snack":              Snacks,
	"Hạt - Trái Cây Sấy Khô":  DriedFruits,

	// Drinks
	"Đồ uống có cồn":      Alcoholic,
	"Bia":                 Alcoholic,
	"Đồ Uống - Giải Khát": Beverages,
	"Cà Phê":              Beverages,
	"Nước Suối":           Beverages,
	"Nước Ngọt":           Beverages,
	"Trà - Các Loại Khác": Beverages,

	// Instant meals
	"Mì - Thực Phẩm Ăn Liền":     InstantFoods,
	"Mì":                         InstantFoods,
	"Miến - Hủ Tíu - Bánh Canh":  InstantFoods,
	"Cháo":                       InstantFoods,
	"Phở - Bún":                  InstantFoods,

	// Dry goods
	"Thực Phẩm Khô":         Grains,
	"Gạo - Nông Sản Khô":    Grains,
	"Ngũ Cốc - Yến Mạch":    Cereals,
	"Thực Phẩm Đóng Hộp":    InstantFoods,
	"Rong Biển - Tảo Biển":  Snacks,
	"Bột Các Loại":          Grains,
	"Thực Phẩm Chay":        InstantFoods,

	// Processed
	"Thực Phẩm Chế Biến":      InstantFoods,
	"Bánh mì":                 InstantFoods,
	"Xúc xích - Thịt Nguội":   ColdCuts,
	"Bánh bao":                InstantFoods,
	"Kim chi":                 InstantFoods,
	"Thực Phẩm Chế Biến Khác": InstantFoods,

	// Seasonings
	"Gia vị":                Seasonings,
	"Dầu Ăn":                Seasonings,
	"Nước Mắm - Nước Chấm":  Seasonings,
	"Đường":                 Seasonings,
	"Nước Tương":            Seasonings,
	"Hạt Nêm":               Seasonings,
	"Tương Các Loại":        Seasonings,
	"Gia Vị Khác":           Seasonings,

	// Frozen
	"Thực Phẩm Đông Lạnh":      InstantFoods,
	"Chả Giò":                  InstantFoods,
	"Cá - Bò Viên":             InstantFoods,
	"Thực Phẩm Đông Lạnh Khác": InstantFoods,
}

// Canonical resolves a vendor category display name to its canonical
// bucket for the given chain. The second return is false when the name is
// unmapped, which excludes the product from the pipeline.
func Canonical(chain catalog.Chain, vendorName string) (string, bool) {
	var table map[string]string
	switch chain {
	case catalog.ChainBHX:
		table = bhxMapping
	case catalog.ChainWinMart:
		table = winmartMapping
	default:
		return "", false
	}
	name, ok := table[vendorName]
	return name, ok
}

// CollectionName derives the destination collection (table) name for a
// canonical category: lowercased, spaces to underscores, "&" spelled out,
// colons removed.
func CollectionName(category string) string {
	name := strings.ReplaceAll(category, "&", "and")
	name = strings.ReplaceAll(name, ":", "")
	name = strings.Join(strings.Fields(name), "_")
	return strings.ToLower(name)
}
