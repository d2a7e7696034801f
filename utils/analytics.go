package utils

// ChartData represents data formatted for charts
type ChartData struct {
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset represents a data series
type Dataset struct {
	Label           string      `json:"label"`
	Data            []int64     `json:"data"`
	BackgroundColor interface{} `json:"backgroundColor,omitempty"`
	BorderColor     interface{} `json:"borderColor,omitempty"`
}

// LabelCount is one grouped row, e.g. a status and how many complaints have it.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// BuildChart turns grouped counts into a single-series chart.
// Pie and doughnut charts get one colour per slice, everything else one colour.
func BuildChart(chartType, title string, rows []LabelCount) ChartData {
	labels := make([]string, 0, len(rows))
	data := make([]int64, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Label)
		data = append(data, r.Count)
	}

	ds := Dataset{Label: title, Data: data}
	colors := chartColors(len(rows))
	switch chartType {
	case "pie", "doughnut":
		ds.BackgroundColor = colors
	default:
		if len(colors) > 0 {
			ds.BackgroundColor = colors[0]
			ds.BorderColor = colors[0]
		}
	}

	return ChartData{Type: chartType, Title: title, Labels: labels, Datasets: []Dataset{ds}}
}

func chartColors(count int) []string {
	baseColors := []string{
		"#3B82F6", // Blue
		"#10B981", // Green
		"#F59E0B", // Amber
		"#EF4444", // Red
		"#8B5CF6", // Purple
		"#EC4899", // Pink
		"#14B8A6", // Teal
		"#F97316", // Orange
	}

	colors := make([]string, 0, count)
	for i := 0; i < count; i++ {
		colors = append(colors, baseColors[i%len(baseColors)])
	}
	return colors
}
