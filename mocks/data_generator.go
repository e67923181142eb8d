package mocks

import (
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
)

const daysPerYear = 365.0

// DataGenerator generates option chains for testing and benchmarking. The underlying follows a
// geometric Brownian motion and every contract is priced with Black-Scholes at a flat volatility.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// ChainConfig configures how option chains are generated.
type ChainConfig struct {
	// Symbol is the underlying symbol (e.g., "SPX")
	Symbol string
	// StartDate is the first quote date
	StartDate time.Time
	// Days is the number of weekday quote dates to generate
	Days int
	// InitialPrice is the starting underlying price
	InitialPrice float64
	// Volatility is the annualised volatility of the underlying, also used to price options
	Volatility float64
	// Drift is the annualised drift of the underlying
	Drift float64
	// RiskFreeRate is the annualised risk-free rate
	RiskFreeRate float64
	// StrikeStep is the distance between listed strikes
	StrikeStep float64
	// StrikesPerSide is the number of strikes listed above and below the initial price
	StrikesPerSide int
	// ExpiryInterval is the number of calendar days between listed maturities
	ExpiryInterval int
	// MaxDTM limits the listed maturities to those at most MaxDTM days away
	MaxDTM int
	// HalfSpread is the bid/ask half spread as a fraction of the theoretical price
	HalfSpread float64
	// EventDate, when set, fills day_to_event with the calendar days from the quote date to it
	EventDate optional.Option[time.Time]
}

// DefaultChainConfig returns a sensible default configuration.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		Symbol:         "SPX",
		StartDate:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Days:           60,
		InitialPrice:   100.0,
		Volatility:     0.2,
		Drift:          0.0,
		RiskFreeRate:   0.02,
		StrikeStep:     5,
		StrikesPerSide: 4,
		ExpiryInterval: 7,
		MaxDTM:         45,
		HalfSpread:     0.05,
		EventDate:      optional.None[time.Time](),
	}
}

// Generate creates the quotes of every listed contract on every quote date, ordered by date,
// maturity, option type and strike.
func (g *DataGenerator) Generate(config ChainConfig) []types.Quote {
	quotes := make([]types.Quote, 0)
	spot := config.InitialPrice
	date := config.StartDate
	dt := 1 / daysPerYear

	strikes := make([]float64, 0, 2*config.StrikesPerSide+1)
	for i := -config.StrikesPerSide; i <= config.StrikesPerSide; i++ {
		strikes = append(strikes, roundToDecimals(config.InitialPrice+float64(i)*config.StrikeStep, 2))
	}

	for generated := 0; generated < config.Days; {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)

			continue
		}

		for _, maturity := range listedMaturities(config, date) {
			for _, optionType := range []types.OptionType{types.OptionTypeCall, types.OptionTypePut} {
				for _, strike := range strikes {
					quotes = append(quotes, priceQuote(config, date, maturity, optionType, strike, spot))
				}
			}
		}

		// Box-Muller transform for a standard normal step
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		spot *= math.Exp((config.Drift-config.Volatility*config.Volatility/2)*dt + config.Volatility*math.Sqrt(dt)*z)

		generated++
		date = date.AddDate(0, 0, 1)
	}

	return quotes
}

// listedMaturities returns the maturities after date that are at most MaxDTM days away.
// Maturities fall every ExpiryInterval days from the start date.
func listedMaturities(config ChainConfig, date time.Time) []time.Time {
	maturities := make([]time.Time, 0)
	if config.ExpiryInterval <= 0 {
		return maturities
	}

	for maturity := config.StartDate.AddDate(0, 0, config.ExpiryInterval); ; maturity = maturity.AddDate(0, 0, config.ExpiryInterval) {
		dtm := types.DaysBetween(date, maturity)
		if dtm > config.MaxDTM {
			break
		}

		if dtm > 0 {
			maturities = append(maturities, maturity)
		}
	}

	return maturities
}

func priceQuote(config ChainConfig, date, maturity time.Time, optionType types.OptionType, strike, spot float64) types.Quote {
	t := float64(types.DaysBetween(date, maturity)) / daysPerYear
	sigma := config.Volatility
	r := config.RiskFreeRate
	sqrtT := math.Sqrt(t)
	discount := math.Exp(-r * t)

	d1 := (math.Log(spot/strike) + (r+sigma*sigma/2)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	var price, delta, theta, rho float64

	common := -spot * normPDF(d1) * sigma / (2 * sqrtT)

	if optionType == types.OptionTypeCall {
		price = spot*normCDF(d1) - strike*discount*normCDF(d2)
		delta = normCDF(d1)
		theta = (common - r*strike*discount*normCDF(d2)) / daysPerYear
		rho = strike * t * discount * normCDF(d2) / 100
	} else {
		price = strike*discount*normCDF(-d2) - spot*normCDF(-d1)
		delta = normCDF(d1) - 1
		theta = (common + r*strike*discount*normCDF(-d2)) / daysPerYear
		rho = -strike * t * discount * normCDF(-d2) / 100
	}

	gamma := normPDF(d1) / (spot * sigma * sqrtT)
	vega := spot * normPDF(d1) * sqrtT / 100

	bid := math.Max(0, price*(1-config.HalfSpread))
	ask := math.Max(0.01, price*(1+config.HalfSpread))

	dayToEvent := optional.None[float64]()
	eventDay := optional.None[time.Time]()

	if config.EventDate.IsSome() {
		event := config.EventDate.Unwrap()
		eventDay = optional.Some(event)
		dayToEvent = optional.Some(float64(types.DaysBetween(date, event)))
	}

	return types.Quote{
		Date:             date,
		MaturityDate:     maturity,
		CallPut:          optionType,
		Strike:           strike,
		UnderlyingSymbol: config.Symbol,
		OptionSymbol:     optionSymbol(config.Symbol, maturity, optionType, strike),
		Bid:              roundToDecimals(bid, 2),
		Ask:              roundToDecimals(ask, 2),
		Last:             roundToDecimals(price, 2),
		UnderlyingPrice:  roundToDecimals(spot, 2),
		Delta:            roundToDecimals(delta, 4),
		Gamma:            roundToDecimals(gamma, 4),
		Theta:            roundToDecimals(theta, 4),
		Vega:             roundToDecimals(vega, 4),
		Rho:              optional.Some(roundToDecimals(rho, 4)),
		ImpliedVol:       optional.Some(sigma),
		EventDay:         eventDay,
		DayToEvent:       dayToEvent,
	}
}

func optionSymbol(symbol string, maturity time.Time, optionType types.OptionType, strike float64) string {
	code := "C"
	if optionType == types.OptionTypePut {
		code = "P"
	}

	return symbol + maturity.Format("060102") + code + strconv.FormatFloat(strike, 'f', -1, 64)
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(value float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))

	return math.Round(value*multiplier) / multiplier
}

// WriteCSV writes quotes to a CSV file with the standard quote field names as header.
func WriteCSV(path string, quotes []types.Quote) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := []string{
		string(types.ColumnDate), string(types.ColumnMaturityDate), string(types.ColumnCallPut),
		string(types.ColumnStrike), string(types.ColumnUnderlyingSymbol), string(types.ColumnOptionSymbol),
		string(types.ColumnBid), string(types.ColumnAsk), string(types.ColumnLast),
		string(types.ColumnUnderlyingPrice), string(types.ColumnDelta), string(types.ColumnGamma),
		string(types.ColumnTheta), string(types.ColumnVega), string(types.ColumnRho),
		string(types.ColumnImpliedVol), string(types.ColumnDayToEvent),
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, q := range quotes {
		record := []string{
			q.Date.Format(time.DateOnly), q.MaturityDate.Format(time.DateOnly), q.CallPut.Code(),
			formatFloat(q.Strike), q.UnderlyingSymbol, q.OptionSymbol,
			formatFloat(q.Bid), formatFloat(q.Ask), formatFloat(q.Last),
			formatFloat(q.UnderlyingPrice), formatFloat(q.Delta), formatFloat(q.Gamma),
			formatFloat(q.Theta), formatFloat(q.Vega), formatOptional(q.Rho),
			formatOptional(q.ImpliedVol), formatOptional(q.DayToEvent),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v optional.Option[float64]) string {
	if v.IsNone() {
		return ""
	}

	return formatFloat(v.Unwrap())
}
