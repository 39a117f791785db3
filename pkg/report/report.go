// Package report renders bench results as a terminal table and an HTML
// height chart.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/avltree/pkg/avl"
	"github.com/Sumatoshi-tech/avltree/pkg/bench"
	"github.com/Sumatoshi-tech/avltree/pkg/safeconv"
)

const (
	lineWidth     = 2
	lineWidthThin = 1
	chartWidth    = "100%"
	chartHeight   = "500px"

	colorHeight = "#5470c6"
	colorBound  = "#ee6666"
)

// Table renders the bench summary.
func Table(result *bench.Result) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("AVL tree bench")
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	stats := result.Stats

	tbl.AppendRows([]table.Row{
		{"Operations", humanize.Comma(int64(result.Operations))},
		{"Inserts", humanize.Comma(stats.Inserts)},
		{"Overwrites", humanize.Comma(stats.Overwrites)},
		{"Removes", humanize.Comma(stats.Removes)},
	})
	tbl.AppendSeparator()
	tbl.AppendRows([]table.Row{
		{"Rotations", humanize.Comma(stats.Rotations)},
		{"Single rotations", humanize.Comma(stats.SingleRotations)},
		{"Double rotations", humanize.Comma(stats.DoubleRotations)},
		{"Fix-up steps", humanize.Comma(stats.FixupSteps)},
		{"Verifications", humanize.Comma(int64(result.Verifications))},
	})
	tbl.AppendSeparator()
	tbl.AppendRows([]table.Row{
		{"Keys", humanize.Comma(int64(result.Len))},
		{"Height", strconv.Itoa(result.Height)},
		{"Height bound", strconv.Itoa(avl.MaxHeight(result.Len))},
		{"Arena slots", humanize.Comma(int64(result.ArenaSize))},
	})

	if result.Hibernated {
		tbl.AppendRow(table.Row{"Hibernated links", humanize.IBytes(safeconv.MustIntToUint64(result.CompressedSize))})
	}

	tbl.AppendSeparator()
	tbl.AppendRows([]table.Row{
		{"Insert time", formatDuration(result.InsertTime)},
		{"Remove time", formatDuration(result.RemoveTime)},
		{"Mean op time", formatDuration(meanOp(result))},
	})

	return tbl.Render()
}

func meanOp(result *bench.Result) time.Duration {
	if result.Operations == 0 {
		return 0
	}

	return (result.InsertTime + result.RemoveTime) / time.Duration(result.Operations)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}

// HeightChart plots the sampled tree height against the AVL height bound for
// the same number of keys.
func HeightChart(samples []bench.Sample, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d samples", len(samples)),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "10%", Left: "center"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: 100},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{Name: "Operation"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Height"}),
		charts.WithGridOpts(opts.Grid{Top: "25%", Bottom: "15%", Left: "5%", Right: "5%", ContainLabel: opts.Bool(true)}),
	)

	labels := make([]string, len(samples))
	heights := make([]opts.LineData, len(samples))
	bounds := make([]opts.LineData, len(samples))
	sizes := make([]opts.LineData, len(samples))

	for i, sample := range samples {
		labels[i] = strconv.Itoa(sample.Op)
		heights[i] = opts.LineData{Value: sample.Height, Name: sample.Phase}
		bounds[i] = opts.LineData{Value: avl.MaxHeight(sample.Size)}
		sizes[i] = opts.LineData{Value: sample.Size}
	}

	line.SetXAxis(labels)
	line.AddSeries("Height", heights,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorHeight}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("AVL bound", bounds,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBound}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidthThin, Type: "dashed"}),
	)

	// Keys use the second y axis.
	line.AddSeries("Keys", sizes,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), YAxisIndex: 1}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidthThin}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "Keys"})

	return line
}

// WriteHeightChart renders HeightChart as a standalone HTML page.
func WriteHeightChart(w io.Writer, samples []bench.Sample, title string) error {
	err := HeightChart(samples, title).Render(w)
	if err != nil {
		return fmt.Errorf("render height chart: %w", err)
	}

	return nil
}
