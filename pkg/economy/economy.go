// Package economy computes a deterministic per-(worldSeed, day) economy
// snapshot — procedural sectors, an active macro event detected by
// backscan, a macro cycle index, and per-district productivity/wealth
// profiles derived from built form and seeded district endowment
// (spec.md §4.13, compressed). trademarket.go (same package)
// layers day-deterministic commodity/partner pricing and goods
// allocation on top.
package economy

import (
	"math"

	"github.com/masterblaster1999/isocity/pkg/dmath"
	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// DistrictCount matches isoworld.MaxDistrictCount.
const DistrictCount = isoworld.MaxDistrictCount

// SectorKind is a procedurally generated economic sector archetype.
type SectorKind uint8

const (
	SectorAgriculture SectorKind = iota
	SectorManufacturing
	SectorLogistics
	SectorEnergy
	SectorTech
	SectorTourism
	SectorFinance
	SectorConstruction
	sectorKindCount
)

func (k SectorKind) String() string {
	switch k {
	case SectorAgriculture:
		return "Agriculture"
	case SectorManufacturing:
		return "Manufacturing"
	case SectorLogistics:
		return "Logistics"
	case SectorEnergy:
		return "Energy"
	case SectorTech:
		return "Tech"
	case SectorTourism:
		return "Tourism"
	case SectorFinance:
		return "Finance"
	case SectorConstruction:
		return "Construction"
	default:
		return "Unknown"
	}
}

// sectorPreset returns the base (industrialAffinity, commercialAffinity,
// volatility) triple for a sector kind, later nudged by RNG.
func sectorPreset(k SectorKind) (ind, com, vol float64) {
	switch k {
	case SectorAgriculture:
		return 0.60, 0.35, 0.35
	case SectorManufacturing:
		return 0.82, 0.30, 0.45
	case SectorLogistics:
		return 0.68, 0.55, 0.55
	case SectorEnergy:
		return 0.74, 0.32, 0.60
	case SectorTech:
		return 0.55, 0.78, 0.65
	case SectorTourism:
		return 0.25, 0.88, 0.60
	case SectorFinance:
		return 0.30, 0.82, 0.75
	case SectorConstruction:
		return 0.72, 0.45, 0.50
	default:
		return 0.5, 0.5, 0.5
	}
}

var sectorNamePrefixes = []string{
	"North", "New", "Port", "Grand", "Stone", "Silver", "Bright",
	"Union", "Ever", "Iron", "Oak", "Sun", "Aurora", "Cedar",
	"Crown", "Harbor", "Summit", "Metro", "Vista", "River",
}

var sectorNameSuffixes = []string{
	"Works", "Holdings", "Guild", "Collective", "Co", "Industries",
	"Group", "Dynamics", "Exchange", "Labs", "Lines", "Ventures",
	"Studios", "Resorts", "Foundry", "Energy", "Logistics", "Fabrics",
	"Markets", "Systems",
}

var sectorKindNouns = []string{
	"Farms", "Foundries", "Freight", "Power", "Compute", "Leisure", "Capital", "Build",
}

func buildSectorName(k SectorKind, r *dmath.RNG) string {
	pre := sectorNamePrefixes[r.IntRange(0, len(sectorNamePrefixes)-1)]
	if r.Float64() < 0.55 {
		noun := sectorKindNouns[clampI(int(k), 0, len(sectorKindNouns)-1)]
		return pre + " " + noun
	}
	suf := sectorNameSuffixes[r.IntRange(0, len(sectorNameSuffixes)-1)]
	return pre + " " + suf
}

// Sector is one of the city's procedurally-generated economic sectors.
type Sector struct {
	Kind                SectorKind
	Name                string
	IndustrialAffinity  float64
	CommercialAffinity  float64
	Volatility          float64
}

// EventKind is the kind of active macro event, if any.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventRecession
	EventFuelSpike
	EventImportShock
	EventExportBoom
	EventTechBoom
	EventTourismSurge
)

// Event is a time-boxed macro shock affecting supply/demand/tax/macro
// multipliers, detected via a per-day Bernoulli backscan (spec.md §4.13).
type Event struct {
	Kind         EventKind
	StartDay     int
	DurationDays int
	Severity     float64 // 0..1
}

func (e Event) activeAt(day int) bool {
	return e.Kind != EventNone && e.DurationDays > 0 && day >= e.StartDay && day < e.StartDay+e.DurationDays
}

// eventAdjust is the multiplicative adjustment an event applies to one
// sector's supply/demand/tax/macro, plus an additive inflation nudge.
type eventAdjust struct {
	Supply, Demand, Tax, Macro float64
	InflationAdd               float64
}

func adjustForEvent(e Event, sec Sector) eventAdjust {
	a := eventAdjust{Supply: 1, Demand: 1, Tax: 1, Macro: 1}
	if e.Kind == EventNone || e.DurationDays <= 0 || e.Severity <= 0 {
		return a
	}
	sev := clampF(e.Severity, 0, 1)
	vol := clampF(sec.Volatility, 0, 1)
	swing := sev * (0.55 + 0.65*vol)

	switch e.Kind {
	case EventRecession:
		a.Macro = 1 - 0.22*swing
		a.Demand = 1 - 0.28*swing
		a.Supply = 1 - 0.12*swing
		a.Tax = 1 - 0.20*swing
		a.InflationAdd = 0.015 * sev
	case EventFuelSpike:
		a.Macro = 1 - 0.10*swing
		a.Demand = 1 - 0.10*swing
		a.Supply = 1 - 0.22*swing
		a.Tax = 1 - 0.08*swing
		a.InflationAdd = 0.045 * sev
	case EventImportShock:
		a.Macro = 1 - 0.12*swing
		a.Demand = 1 - 0.16*swing
		a.Supply = 1 - 0.10*swing
		a.Tax = 1 - 0.10*swing
		a.InflationAdd = 0.030 * sev
	case EventExportBoom:
		a.Macro = 1 + 0.18*swing
		a.Demand = 1 + 0.05*swing
		a.Supply = 1 + 0.22*swing
		a.Tax = 1 + 0.12*swing
		a.InflationAdd = -0.008 * sev
	case EventTechBoom:
		k := 0.55
		if sec.Kind == SectorTech || sec.Kind == SectorFinance {
			k = 1.0
		}
		a.Macro = 1 + (0.12*k)*swing
		a.Demand = 1 + (0.18*k)*swing
		a.Supply = 1 + (0.06*k)*swing
		a.Tax = 1 + (0.14*k)*swing
		a.InflationAdd = 0.010 * sev
	case EventTourismSurge:
		k := 0.50
		if sec.Kind == SectorTourism {
			k = 1.0
		}
		a.Macro = 1 + (0.10*k)*swing
		a.Demand = 1 + (0.22*k)*swing
		a.Supply = 1 + (0.03*k)*swing
		a.Tax = 1 + (0.10*k)*swing
		a.InflationAdd = 0.012 * sev
	}
	a.Supply = clampF(a.Supply, 0, 4)
	a.Demand = clampF(a.Demand, 0, 4)
	a.Tax = clampF(a.Tax, 0, 4)
	a.Macro = clampF(a.Macro, 0, 4)
	return a
}

// DistrictProfile is the per-district economic state derived from
// built form plus a seeded latent endowment (spec.md §4.13).
type DistrictProfile struct {
	DominantSector         int // index into Snapshot.Sectors, -1 if none
	Wealth                 float64 // 0..1
	Productivity           float64 // 0..1
	TaxBaseMult            float64
	IndustrialSupplyMult   float64
	CommercialDemandMult   float64
}

// Snapshot is the full deterministic economy state for one
// (worldSeed, day) pair.
type Snapshot struct {
	Day              int
	Sectors          []Sector
	ActiveEvent      Event
	ActiveEventDaysLeft int
	EconomyIndex     float64 // macro multiplier, ~0.55..1.75
	Inflation        float64 // 0..0.25
	Districts        [DistrictCount]DistrictProfile
	CityWealth       float64
}

// Config tunes ComputeEconomySnapshot.
type Config struct {
	SectorCount         int
	MacroPeriodDays     float64
	EventScanbackDays   int
	MinEventDurationDays int
	MaxEventDurationDays int
	SeedSalt            uint64
}

// DefaultConfig mirrors original_source/Economy.hpp's defaults.
func DefaultConfig() Config {
	return Config{
		SectorCount:          6,
		MacroPeriodDays:      180,
		EventScanbackDays:    64,
		MinEventDurationDays: 5,
		MaxEventDurationDays: 30,
	}
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// baseSeed mixes the world seed with a fixed odd constant and an
// optional caller salt (original_source/Economy.cpp EconomyBaseSeed).
func baseSeed(world *isoworld.World, cfg Config) uint64 {
	s0 := world.Seed() ^ 0xD1B54A32D192ED03
	s1 := cfg.SeedSalt * 0x9E3779B97F4A7C15
	return s0 ^ s1
}

// eventStartForDay is a deterministic Bernoulli predicate, true for
// roughly 1 day in 103 (spec.md §4.13), false before day 5 to avoid
// early-game event chaos.
func eventStartForDay(base uint64, day int) (bool, uint32) {
	s := base ^ (uint64(day) * 0x9E3779B97F4A7C15) ^ 0xF00DF00DF00DF00D
	r := dmath.NewRNG(s, "economy-event", nil)
	tag := uint32(r.Uint64())
	if day < 5 {
		return false, tag
	}
	return tag%103 == 0, tag
}

func eventForStartTag(tag uint32, startDay int, cfg Config) Event {
	minDur := cfg.MinEventDurationDays
	if minDur < 1 {
		minDur = 1
	}
	maxDur := cfg.MaxEventDurationDays
	if maxDur < minDur {
		maxDur = minDur
	}
	span := uint32(maxDur - minDur + 1)

	e := Event{StartDay: startDay}
	e.DurationDays = minDur + int(tag%span)

	sev8 := (tag >> 8) & 0xFF
	sev01 := float64(sev8) / 255.0
	e.Severity = clampF(0.25+0.75*sev01, 0, 1)

	const kKinds = 6
	pick := int((tag >> 16) % kKinds)
	switch pick {
	case 0:
		e.Kind = EventRecession
	case 1:
		e.Kind = EventFuelSpike
	case 2:
		e.Kind = EventImportShock
	case 3:
		e.Kind = EventExportBoom
	case 4:
		e.Kind = EventTechBoom
	case 5:
		e.Kind = EventTourismSurge
	default:
		e.Kind = EventRecession
	}
	return e
}

// Housing/job capacity tables per zone level (1..3), used to occupancy-
// normalize district residential/commercial/industrial fill. Not named
// numerically by spec.md; chosen as round, increasing-by-level
// constants consistent with the zone-level semantics of spec.md §3.1.
func housingForLevel(level int) int {
	switch level {
	case 1:
		return 10
	case 2:
		return 24
	case 3:
		return 48
	default:
		return 0
	}
}

func jobsCommercialForLevel(level int) int {
	switch level {
	case 1:
		return 8
	case 2:
		return 18
	case 3:
		return 36
	default:
		return 0
	}
}

func jobsIndustrialForLevel(level int) int {
	switch level {
	case 1:
		return 12
	case 2:
		return 26
	case 3:
		return 50
	default:
		return 0
	}
}

func clampZoneLevel(level uint8) int {
	return clampI(int(level), 1, 3)
}

type districtScan struct {
	landTiles int

	resTiles, comTiles, indTiles int
	resCap, comCap, indCap       int
	resOcc, comOcc, indOcc       int
	resLevelSum, comLevelSum, indLevelSum float64
}

// ComputeEconomySnapshot derives the deterministic economy state for
// world at the given day (spec.md §4.13). Pure function of
// (world.Seed(), the world's current tile contents, day, cfg).
func ComputeEconomySnapshot(world *isoworld.World, day int, cfg Config) Snapshot {
	var out Snapshot
	out.Day = maxI(0, day)

	sectorCount := clampI(cfg.SectorCount, 1, 16)
	period := cfg.MacroPeriodDays
	if period < 4 {
		period = 4
	}
	scanback := clampI(cfg.EventScanbackDays, 0, 64)

	base := baseSeed(world, cfg)

	srng := dmath.NewRNG(base^0xC3A5C85C97CB3127, "economy-sectors", nil)
	out.Sectors = make([]Sector, 0, sectorCount)
	for i := 0; i < sectorCount; i++ {
		kind := SectorKind(srng.IntRange(0, int(sectorKindCount)-1))
		ind, com, vol := sectorPreset(kind)
		ind = clampF(ind+srng.Float64Range(-0.08, 0.08), 0.05, 0.95)
		com = clampF(com+srng.Float64Range(-0.08, 0.08), 0.05, 0.95)
		vol = clampF(vol+srng.Float64Range(-0.10, 0.10), 0.05, 0.95)
		out.Sectors = append(out.Sectors, Sector{
			Kind: kind, Name: buildSectorName(kind, srng),
			IndustrialAffinity: ind, CommercialAffinity: com, Volatility: vol,
		})
	}

	// Deterministic scanback for the most recent still-active event.
	for off := 0; off <= scanback; off++ {
		startDay := out.Day - off
		if startDay < 0 {
			break
		}
		started, tag := eventStartForDay(base, startDay)
		if !started {
			continue
		}
		e := eventForStartTag(tag, startDay, cfg)
		if e.DurationDays <= 0 {
			continue
		}
		if e.activeAt(out.Day) {
			out.ActiveEvent = e
			out.ActiveEventDaysLeft = e.StartDay + e.DurationDays - out.Day
			break
		}
	}

	// Macro cycle: two incommensurable pseudo-sine cycles plus day noise,
	// all via fixed-point Q16 math to stay libm-free (spec.md §5).
	prng := dmath.NewRNG(base^0x9E3779B97F4A7C15, "economy-macro", nil)
	periodI := int(math.Round(period))
	if periodI < 4 {
		periodI = 4
	}
	period2I := maxI(2, (periodI*55+50)/100)
	phase1 := 0
	if periodI > 0 {
		phase1 = prng.IntRange(0, periodI-1)
	}
	phase2 := 0
	if period2I > 0 {
		phase2 = prng.IntRange(0, period2I-1)
	}
	cyc1 := dmath.Q16ToFloat(dmath.PseudoSineQ16(int64(out.Day), int64(periodI), int64(phase1)))
	cyc2 := dmath.Q16ToFloat(dmath.PseudoSineQ16(int64(out.Day), int64(period2I), int64(phase2)))

	noiseSeed := base ^ (uint64(out.Day) * 0xBF58476D1CE4E5B9)
	nrng := dmath.NewSplitMix64(noiseSeed)
	noiseU32 := uint32(nrng.Next())
	noise := dmath.Q16ToFloat(dmath.NoiseQ16FromU32(noiseU32)*2 - dmath.Q16)

	macro := 1.0 + 0.12*cyc1 + 0.05*cyc2 + 0.03*noise
	macro = clampF(macro, 0.55, 1.50)

	infl := 0.012 + 0.022*math.Abs(cyc2) + 0.010*math.Abs(noise)

	if out.ActiveEvent.Kind != EventNone {
		dummy := Sector{Kind: SectorLogistics, Volatility: 0.6}
		ea := adjustForEvent(out.ActiveEvent, dummy)
		macro *= ea.Macro
		infl += ea.InflationAdd
	}

	out.EconomyIndex = clampF(macro, 0.55, 1.75)
	out.Inflation = clampF(infl, 0, 0.25)

	// District scan: current built form.
	var scan [DistrictCount]districtScan
	w, h := world.Width(), world.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := world.At(x, y)
			d := clampI(int(t.District), 0, DistrictCount-1)
			ds := &scan[d]
			if t.Terrain != isoworld.TerrainWater {
				ds.landTiles++
			}
			switch t.Overlay {
			case isoworld.OverlayResidential:
				ds.resTiles++
				ds.resCap += housingForLevel(clampZoneLevel(t.Level))
				ds.resOcc += int(t.Occupants)
				ds.resLevelSum += float64(clampZoneLevel(t.Level))
			case isoworld.OverlayCommercial:
				ds.comTiles++
				ds.comCap += jobsCommercialForLevel(clampZoneLevel(t.Level))
				ds.comOcc += int(t.Occupants)
				ds.comLevelSum += float64(clampZoneLevel(t.Level))
			case isoworld.OverlayIndustrial:
				ds.indTiles++
				ds.indCap += jobsIndustrialForLevel(clampZoneLevel(t.Level))
				ds.indOcc += int(t.Occupants)
				ds.indLevelSum += float64(clampZoneLevel(t.Level))
			}
		}
	}

	var wealthSum, wealthW float64
	for d := 0; d < DistrictCount; d++ {
		ds := scan[d]
		dSeed := base ^ (uint64(d) * 0xA24BAED4963EE407) ^ 0x632BE59BD9B4E019
		drng := dmath.NewRNG(dSeed, "economy-district", nil)

		baseWealth := 0.35 + 0.30*drng.Float64()
		baseProd := 0.35 + 0.30*drng.Float64()
		biasWealth := (drng.Float64() - 0.5) * 0.20
		biasProd := (drng.Float64() - 0.5) * 0.20

		secIdx := -1
		if len(out.Sectors) > 0 {
			secIdx = drng.IntRange(0, len(out.Sectors)-1)
		}
		var sec Sector
		if secIdx >= 0 {
			sec = out.Sectors[secIdx]
		}

		occRes, occCom, occInd := 0.0, 0.0, 0.0
		if ds.resCap > 0 {
			occRes = clampF(float64(ds.resOcc)/float64(ds.resCap), 0, 1.25)
		}
		if ds.comCap > 0 {
			occCom = clampF(float64(ds.comOcc)/float64(ds.comCap), 0, 1.25)
		}
		if ds.indCap > 0 {
			occInd = clampF(float64(ds.indOcc)/float64(ds.indCap), 0, 1.25)
		}

		lvlRes, lvlCom, lvlInd := 1.0, 1.0, 1.0
		if ds.resTiles > 0 {
			lvlRes = clampF(ds.resLevelSum/float64(ds.resTiles), 1, 3)
		}
		if ds.comTiles > 0 {
			lvlCom = clampF(ds.comLevelSum/float64(ds.comTiles), 1, 3)
		}
		if ds.indTiles > 0 {
			lvlInd = clampF(ds.indLevelSum/float64(ds.indTiles), 1, 3)
		}
		lvlResN := (lvlRes - 1) * 0.5
		lvlComN := (lvlCom - 1) * 0.5
		lvlIndN := (lvlInd - 1) * 0.5

		devWealth := clampF(0.55*occRes+0.35*occCom+0.10*(0.5*(lvlResN+lvlComN)), 0, 1)
		devProd := clampF(0.65*occInd+0.20*occCom+0.15*lvlIndN, 0, 1)

		secWealthBias := (sec.CommercialAffinity - 0.5) * 0.20
		secProdBias := (sec.IndustrialAffinity - 0.5) * 0.20

		var p DistrictProfile
		p.DominantSector = secIdx
		p.Wealth = clampF(baseWealth+biasWealth+0.45*devWealth+secWealthBias, 0, 1)
		p.Productivity = clampF(baseProd+biasProd+0.45*devProd+secProdBias, 0, 1)

		macroFactor := clampF(out.EconomyIndex, 0.70, 1.30)
		taxBase := (0.65 + 0.85*p.Wealth + 0.25*p.Productivity) * macroFactor
		supply := (0.50 + 1.10*p.Productivity) * macroFactor
		demand := (0.50 + 1.15*p.Wealth) * macroFactor

		supply *= clampF(0.88+0.28*sec.IndustrialAffinity, 0.50, 1.35)
		demand *= clampF(0.88+0.28*sec.CommercialAffinity, 0.50, 1.35)

		ea := adjustForEvent(out.ActiveEvent, sec)
		supply *= ea.Supply
		demand *= ea.Demand
		taxBase *= ea.Tax

		p.TaxBaseMult = clampF(taxBase, 0.25, 2.50)
		p.IndustrialSupplyMult = clampF(supply, 0, 4)
		p.CommercialDemandMult = clampF(demand, 0, 4)

		out.Districts[d] = p

		wgt := float64(ds.landTiles)
		if wgt <= 0 {
			wgt = 1
		}
		wealthSum += p.Wealth * wgt
		wealthW += wgt
	}

	if wealthW > 0 {
		out.CityWealth = clampF(wealthSum/wealthW, 0, 1)
	} else {
		out.CityWealth = 0.5
	}

	return out
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
