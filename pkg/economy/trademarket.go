package economy

import (
	"math"
	"sort"

	"github.com/masterblaster1999/isocity/pkg/dmath"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// CommodityCategory classifies a traded good by the demand tier it
// serves (spec.md §4.13: "commercial demand split by level into bulk,
// consumer, luxury").
type CommodityCategory uint8

const (
	CategoryBulk CommodityCategory = iota
	CategoryConsumer
	CategoryLuxury
)

// Commodity is a procedurally generated, day-deterministic good.
type Commodity struct {
	ID               int
	Category         CommodityCategory
	BasePricePerCrate int
	Volatility       float64
	Name             string
}

// Partner is a procedurally generated trade partner.
type Partner struct {
	Name          string
	ShippingMult  float64 // >1 = more expensive shipping
	Reliability   float64 // 0..1, higher = less likely disrupted
	FavoredBuys   [3]int  // commodity IDs this partner pays extra for (we export)
	FavoredSells  [3]int  // commodity IDs this partner discounts (we import)
}

func (p Partner) favors(ids [3]int, id int) bool {
	return ids[0] == id || ids[1] == id || ids[2] == id
}

// crateSize is the goods-unit size of one tradable crate, keeping
// dollar scales tame (spec.md §4.13's "goods units supplied by the
// collaborator").
const crateSize = 10

// MarketDay is the full day-deterministic trade breakdown (spec.md §4.13).
type MarketDay struct {
	Day int

	Commodities []Commodity
	Partners    []Partner

	// Citywide per-commodity totals, goods units.
	Supply, Demand, Deficit, Surplus []int

	// Allocation of goods.Imported/Exported across commodities.
	Imported, Exported []int

	MarketFactor []float64 // per-commodity daily market multiplier

	ChosenImportPartner, ChosenExportPartner int
	ImportDisrupted, ExportDisrupted         bool

	ImportPricePerCrate, ExportPricePerCrate []int
	ImportCost, ExportRevenue                 int64
}

// TradeSettings is non-persistent runtime tuning (spec.md §4.13: not
// saved in the world save file to avoid save-version churn).
type TradeSettings struct {
	TariffPct      int // 0..30
	ImportPartner  int // -1 = auto
	ExportPartner  int // -1 = auto
	AllowImports   bool
	AllowExports   bool
}

// DefaultTradeSettings enables trade with no tariff and auto partner
// selection.
func DefaultTradeSettings() TradeSettings {
	return TradeSettings{ImportPartner: -1, ExportPartner: -1, AllowImports: true, AllowExports: true}
}

// GoodsFlow is the collaborator-supplied goods-units moved today
// (spec.md §6: "in goods units supplied by the collaborator").
type GoodsFlow struct {
	Imported int
	Exported int
}

const defaultCommodityCount = 8
const defaultPartnerCount = 3

func frac01(u uint32) float64 { return float64(u) / 4294967295.0 }

// hashCoords32 is a deterministic avalanching mix of two coordinates
// and a salt, grounded on the same murmur-style finalizer used by the
// day-seed mixer below it in original_source/TradeMarket.cpp (its own
// two-argument hash helper lived in a file not retained for this pack).
func hashCoords32(a, b int, salt uint32) uint32 {
	v := uint32(a)*0x9E3779B1 ^ uint32(b)*0x85EBCA6B ^ salt
	v ^= v >> 16
	v *= 0x7FEB352D
	v ^= v >> 15
	v *= 0x846CA68B
	v ^= v >> 16
	return v
}

func daySeed32(worldSeed uint64, day int, salt uint32) uint32 {
	s0 := uint32(worldSeed & 0xFFFFFFFF)
	v := s0 ^ uint32(day)*0x9E3779B1 ^ salt*0x85EBCA6B
	v ^= v >> 16
	v *= 0x7FEB352D
	v ^= v >> 15
	v *= 0x846CA68B
	v ^= v >> 16
	return v
}

var commodityAdjectives = []string{
	"Iron", "Copper", "Amber", "Verdant", "Cobalt", "Ivory", "Saffron", "Frost", "Umber", "Azure",
	"Silk", "Granite", "Gilded", "Brass", "Silver", "Crimson", "Dawn", "Moss", "Smoke", "Sun",
}

var commodityNouns = []string{
	"Grain", "Timber", "Textiles", "Machinery", "Tools", "Glass", "Ceramics", "Spices", "Tea", "Salt",
	"Alloys", "Microchips", "Medicine", "Luxuries", "Fuel", "Paper", "Cement", "Plastics", "Dyes", "Gadgets",
}

func generateCommodities(seed32 uint32, n int) []Commodity {
	out := make([]Commodity, 0, n)
	for i := 0; i < n; i++ {
		h := hashCoords32(i*97+13, i*31+7, seed32^0xC011A11D)
		adj := commodityAdjectives[int(h>>4)%len(commodityAdjectives)]
		noun := commodityNouns[int(h>>11)%len(commodityNouns)]
		cat := CommodityCategory(i % 3)
		base := 2 + int(h>>20)%8
		out = append(out, Commodity{
			ID: i, Category: cat,
			BasePricePerCrate: base + int((h>>12)%4),
			Volatility:        0.06 + 0.14*frac01(h^0x5EEDBEEF),
			Name:              adj + " " + noun,
		})
	}
	return out
}

func generatePartners(seed32 uint32, n, commodityCount int) []Partner {
	out := make([]Partner, 0, n)
	for p := 0; p < n; p++ {
		h := hashCoords32(p*19+3, p*53+11, seed32^0x7A11F00D)
		dist := 40.0 + 140.0*frac01(h^0x13579BDF)
		partner := Partner{
			Name:         "Partner " + string(rune('A'+p)),
			ShippingMult: 1.0 + dist/400.0,
			Reliability:  0.72 + 0.25*frac01(h^0x2468ACE0),
		}
		for k := 0; k < 3; k++ {
			hb := hashCoords32(p, k*2, seed32^0xB0B0B0B0)
			hs := hashCoords32(p, k*2+1, seed32^0xC0C0C0C0)
			if commodityCount > 0 {
				partner.FavoredBuys[k] = int(hb) % commodityCount
				partner.FavoredSells[k] = int(hs) % commodityCount
			}
		}
		out = append(out, partner)
	}
	return out
}

func computeDailyMarketFactor(seed32 uint32, day int, commodities []Commodity) []float64 {
	out := make([]float64, len(commodities))
	for i, c := range commodities {
		h0 := hashCoords32(i, 17, seed32^0xA11CE)
		h1 := hashCoords32(i, 91, seed32^0xC0FFEE)

		const minPeriod, maxPeriod = 63, 210
		span := maxPeriod - minPeriod
		periodDays := minPeriod + int(h1)%span
		phaseDays := int(h0) % maxI(2, periodDays)

		cyc := dmath.Q16ToFloat(dmath.PseudoSineQ16(int64(day), int64(periodDays), int64(phaseDays)))
		cycAmp := 0.12 + 0.10*frac01(h1^0x9E3779B9)

		ds := daySeed32(uint64(seed32), day, 0x4D4B545F)
		hn := hashCoords32(day, i*13+7, ds^0xD00D)
		noise := (frac01(hn) - 0.5) * c.Volatility

		f := 1.0 + cyc*cycAmp + noise
		out[i] = clampF(f, 0.65, 1.45)
	}
	return out
}

func partnerMood(seed32 uint32, day, p int) float64 {
	ds := daySeed32(uint64(seed32), day, 0x50415254)
	h := hashCoords32(day, p, ds^0x1234567)
	return 0.98 + 0.08*frac01(h)
}

func partnerDisrupted(seed32 uint32, day, p int, reliability float64) bool {
	ds := daySeed32(uint64(seed32), day, 0x53484F4B)
	h := hashCoords32(p, day, ds^0xF00D)
	return frac01(h) > clampF(reliability, 0, 1)
}

func roundClampPrice(v float64) int {
	v = clampF(v, 1, 99)
	p := int(math.Round(v))
	if p < 1 {
		p = 1
	}
	return p
}

func priceBuyPerCrate(c Commodity, market float64, p Partner, mood float64, disrupted bool) int {
	mult := 1.0
	if p.favors(p.FavoredBuys, c.ID) {
		mult *= 1.22
	}
	if disrupted {
		mult *= 0.92
	}
	price := float64(maxI(1, c.BasePricePerCrate)) * market * mood * mult
	price /= math.Max(0.75, p.ShippingMult)
	return roundClampPrice(price)
}

func priceSellPerCrate(c Commodity, market float64, p Partner, mood float64, disrupted bool) int {
	mult := 1.0
	if p.favors(p.FavoredSells, c.ID) {
		mult *= 0.84
	}
	if disrupted {
		mult *= 1.10
	}
	price := float64(maxI(1, c.BasePricePerCrate)) * market * mood * mult
	price *= math.Max(0.75, p.ShippingMult)
	return roundClampPrice(price)
}

func baseIndustrialSupply(level int) int { return 12 * clampI(level, 0, 3) }
func baseCommercialDemand(level int) int { return 8 * clampI(level, 0, 3) }

// computeSupplyDemandByCommodity scans industrial tiles into supply and
// commercial tiles into demand, split bulk/consumer/luxury by level with
// a deterministic per-district taste bias (spec.md §4.13).
func computeSupplyDemandByCommodity(world *isoworld.World, commodities []Commodity) (supply, demand []int) {
	n := len(commodities)
	supply = make([]int, n)
	demand = make([]int, n)
	if n == 0 {
		return
	}

	var byCat [3][]int
	for i, c := range commodities {
		cat := int(c.Category)
		if cat < 0 || cat > 2 {
			cat = 0
		}
		byCat[cat] = append(byCat[cat], i)
	}
	seed32 := uint32(world.Seed() & 0xFFFFFFFF)

	pickFromCat := func(cat, x, y int, salt uint32) int {
		cat = clampI(cat, 0, 2)
		h := hashCoords32(x, y, seed32^salt)
		if len(byCat[cat]) > 0 {
			return byCat[cat][int(h)%len(byCat[cat])]
		}
		return int(h) % n
	}

	w, h := world.Width(), world.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := world.At(x, y)
			if t.Overlay == isoworld.OverlayIndustrial && t.Level > 0 {
				level := int(t.Level)
				amount := baseIndustrialSupply(level)
				cid := pickFromCat(level-1, x, y, 0x01AD011)
				supply[cid] += amount
			}
			if t.Overlay == isoworld.OverlayCommercial && t.Level > 0 {
				level := int(t.Level)
				base := baseCommercialDemand(level)
				if base <= 0 {
					continue
				}
				var wBulk, wCons, wLux float64
				switch level {
				case 1:
					wBulk, wCons, wLux = 0.55, 0.35, 0.10
				case 2:
					wBulk, wCons, wLux = 0.40, 0.40, 0.20
				default:
					wBulk, wCons, wLux = 0.25, 0.45, 0.30
				}
				d := int(t.District)
				b0 := (frac01(hashCoords32(d, 0, seed32^0xD15A71C)) - 0.5) * 0.10
				b1 := (frac01(hashCoords32(d, 1, seed32^0xD15A71C)) - 0.5) * 0.10
				b2 := (frac01(hashCoords32(d, 2, seed32^0xD15A71C)) - 0.5) * 0.10
				wBulk = clampF(wBulk+b0, 0.10, 0.80)
				wCons = clampF(wCons+b1, 0.10, 0.80)
				wLux = clampF(wLux+b2, 0.05, 0.80)
				sum := math.Max(0.001, wBulk+wCons+wLux)
				wBulk /= sum
				wCons /= sum
				wLux /= sum

				aBulk := int(math.Round(float64(base) * wBulk))
				aCons := int(math.Round(float64(base) * wCons))
				aLux := base - aBulk - aCons
				if aLux < 0 {
					aLux = 0
				}

				c0 := pickFromCat(0, x+11, y+17, 0xC0AABB0)
				c1 := pickFromCat(1, x+37, y+41, 0xC0AABB1)
				c2 := pickFromCat(2, x+59, y+73, 0xC0AABB2)
				demand[c0] += aBulk
				demand[c1] += aCons
				demand[c2] += aLux
			}
		}
	}
	return
}

func computeDeficitSurplus(supply, demand []int) (deficit, surplus []int) {
	n := len(supply)
	deficit = make([]int, n)
	surplus = make([]int, n)
	for i := 0; i < n; i++ {
		if demand[i] > supply[i] {
			deficit[i] = demand[i] - supply[i]
		} else {
			surplus[i] = supply[i] - demand[i]
		}
	}
	return
}

// allocateByWeights distributes total goods units across buckets
// proportional to w, using largest-remainder rounding with a
// deterministic hash tie-break (spec.md §4.13).
func allocateByWeights(total int, w []int, seed32 uint32, day int, salt uint32) []int {
	out := make([]int, len(w))
	if total <= 0 {
		return out
	}
	var sumW int64
	for _, v := range w {
		if v > 0 {
			sumW += int64(v)
		}
	}
	if sumW <= 0 {
		if len(out) > 0 {
			out[0] = total
		}
		return out
	}

	frac := make([]uint64, len(w))
	var assigned int64
	for i, v := range w {
		wi := int64(maxI(0, v))
		num := int64(total) * wi
		base := num / sumW
		out[i] = int(base)
		assigned += base
		frac[i] = uint64(num % sumW)
	}

	rem := total - int(assigned)
	if rem <= 0 {
		return out
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if frac[idx[a]] != frac[idx[b]] {
			return frac[idx[a]] > frac[idx[b]]
		}
		ha := hashCoords32(idx[a], day, seed32^salt)
		hb := hashCoords32(idx[b], day, seed32^salt)
		return ha < hb
	})
	for k := 0; k < len(idx) && rem > 0; k++ {
		out[idx[k]]++
		rem--
	}
	return out
}

func chooseDefaultPartner(allow bool) int {
	if allow {
		return 0
	}
	return -1
}

// ComputeTradeMarketDay computes the full day-deterministic trade
// breakdown: commodities/partners, market pricing, supply/demand,
// allocation, and budget impact (spec.md §4.13).
func ComputeTradeMarketDay(world *isoworld.World, day int, settings TradeSettings, goods GoodsFlow) MarketDay {
	var out MarketDay
	out.Day = day

	seed32 := uint32(world.Seed() & 0xFFFFFFFF)
	commodityCount := defaultCommodityCount
	partnerCount := defaultPartnerCount

	out.Commodities = generateCommodities(seed32, commodityCount)
	out.Partners = generatePartners(seed32, partnerCount, commodityCount)
	out.MarketFactor = computeDailyMarketFactor(seed32, day, out.Commodities)

	out.Supply, out.Demand = computeSupplyDemandByCommodity(world, out.Commodities)
	out.Deficit, out.Surplus = computeDeficitSurplus(out.Supply, out.Demand)

	out.Imported = allocateByWeights(goods.Imported, out.Deficit, seed32, day, 0x1F00A11)
	out.Exported = allocateByWeights(goods.Exported, out.Surplus, seed32, day, 0x3F00B22)

	out.ImportPricePerCrate = make([]int, len(out.Commodities))
	out.ExportPricePerCrate = make([]int, len(out.Commodities))
	for i := range out.ImportPricePerCrate {
		out.ImportPricePerCrate[i] = 1
		out.ExportPricePerCrate[i] = 1
	}

	importP := settings.ImportPartner
	exportP := settings.ExportPartner
	if importP < 0 || importP >= len(out.Partners) {
		importP = chooseDefaultPartner(settings.AllowImports)
	}
	if exportP < 0 || exportP >= len(out.Partners) {
		exportP = chooseDefaultPartner(settings.AllowExports)
	}
	out.ChosenImportPartner = importP
	out.ChosenExportPartner = exportP

	if importP >= 0 {
		out.ImportDisrupted = partnerDisrupted(seed32, day, importP, out.Partners[importP].Reliability)
	}
	if exportP >= 0 {
		out.ExportDisrupted = partnerDisrupted(seed32, day, exportP, out.Partners[exportP].Reliability)
	}

	for i, c := range out.Commodities {
		m := 1.0
		if i < len(out.MarketFactor) {
			m = out.MarketFactor[i]
		}
		if importP >= 0 {
			p := out.Partners[importP]
			mood := partnerMood(seed32, day, importP)
			out.ImportPricePerCrate[i] = priceSellPerCrate(c, m, p, mood, out.ImportDisrupted)
		}
		if exportP >= 0 {
			p := out.Partners[exportP]
			mood := partnerMood(seed32, day, exportP)
			out.ExportPricePerCrate[i] = priceBuyPerCrate(c, m, p, mood, out.ExportDisrupted)
		}
	}

	tariff := clampI(settings.TariffPct, 0, 30)
	var importCost, exportRev int64
	for i := range out.Commodities {
		imp, exp := 0, 0
		if i < len(out.Imported) {
			imp = out.Imported[i]
		}
		if i < len(out.Exported) {
			exp = out.Exported[i]
		}
		if imp > 0 && importP >= 0 {
			crates := (imp + crateSize - 1) / crateSize
			p := out.ImportPricePerCrate[i]
			c := int64(crates) * int64(p)
			c += (c * int64(tariff)) / 100
			importCost += c
		}
		if exp > 0 && exportP >= 0 {
			crates := (exp + crateSize - 1) / crateSize
			p := out.ExportPricePerCrate[i]
			exportRev += int64(crates) * int64(p)
		}
	}
	out.ImportCost = clampI64(importCost, 0, 1_000_000_000)
	out.ExportRevenue = clampI64(exportRev, 0, 1_000_000_000)

	return out
}

func clampI64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
