package domain

// MetricKey identifies one of the scoring metrics.
type MetricKey string

const (
	MetricSnowNew       MetricKey = "snow_new"
	MetricSnowDepth     MetricKey = "snow_depth"
	MetricTemperature   MetricKey = "temperature"
	MetricPrecipitation MetricKey = "precipitation"
	MetricWind          MetricKey = "wind"
)

// Preference tells scoring which end of a metric's range is desirable.
type Preference int

const (
	HigherIsBetter Preference = iota
	LowerIsBetter
)

func (p Preference) String() string {
	if p == LowerIsBetter {
		return "lower"
	}
	return "higher"
}

// Metric binds a scoring metric to its source column and weighting defaults.
type Metric struct {
	Key           MetricKey
	Column        string
	Label         string
	Preference    Preference
	DefaultWeight float64
	EnvKey        string
	FlagName      string
}

// registry is ordered; prompts and reports follow this order.
var registry = []Metric{
	{
		Key:           MetricSnowNew,
		Column:        ColumnNewSnow,
		Label:         "Fresh snow",
		Preference:    HigherIsBetter,
		DefaultWeight: 30,
		EnvKey:        "WEIGHT_SNOW_NEW",
		FlagName:      "weight-snow-new",
	},
	{
		Key:           MetricSnowDepth,
		Column:        ColumnSnowDepth,
		Label:         "Snow depth",
		Preference:    HigherIsBetter,
		DefaultWeight: 25,
		EnvKey:        "WEIGHT_SNOW_DEPTH",
		FlagName:      "weight-snow-depth",
	},
	{
		Key:           MetricTemperature,
		Column:        ColumnTemperature,
		Label:         "Temperature",
		Preference:    LowerIsBetter,
		DefaultWeight: 20,
		EnvKey:        "WEIGHT_TEMPERATURE",
		FlagName:      "weight-temperature",
	},
	{
		Key:           MetricPrecipitation,
		Column:        ColumnPrecipitation,
		Label:         "Precipitation",
		Preference:    HigherIsBetter,
		DefaultWeight: 15,
		EnvKey:        "WEIGHT_PRECIPITATION",
		FlagName:      "weight-precipitation",
	},
	{
		Key:           MetricWind,
		Column:        ColumnWind,
		Label:         "Wind",
		Preference:    LowerIsBetter,
		DefaultWeight: 10,
		EnvKey:        "WEIGHT_WIND",
		FlagName:      "weight-wind",
	},
}

// Metrics returns the metric registry in display order. The returned slice is a copy.
func Metrics() []Metric {
	out := make([]Metric, len(registry))
	copy(out, registry)
	return out
}

// LookupMetric returns the registry entry for key.
func LookupMetric(key MetricKey) (Metric, bool) {
	for _, m := range registry {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// MetricValue returns the observation's reading for a metric, or nil when missing.
func (o Observation) MetricValue(key MetricKey) *float64 {
	switch key {
	case MetricSnowNew:
		return o.NewSnowCM
	case MetricSnowDepth:
		return o.SnowDepthCM
	case MetricTemperature:
		return o.TemperatureC
	case MetricPrecipitation:
		return o.PrecipitationMM
	case MetricWind:
		return o.WindBeaufort
	default:
		return nil
	}
}
