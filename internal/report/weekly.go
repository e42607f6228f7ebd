package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hpungsan/mealtrace/internal/nutrition"
	"github.com/hpungsan/mealtrace/internal/ops"
)

// WeeklyFoods renders the flat weekly-by-food report.
func (r *Renderer) WeeklyFoods(w io.Writer, f Format, out *ops.WeeklyFoodsOutput) error {
	return r.render(w, f, weeklyFoodsDoc{r: r, out: out}, out)
}

type weeklyFoodsDoc struct {
	r   *Renderer
	out *ops.WeeklyFoodsOutput
}

func (d weeklyFoodsDoc) title() string { return "Weekly foods" }

func (d weeklyFoodsDoc) text(w io.Writer) error {
	var cur nutrition.Week
	for i, row := range d.out.Rows {
		wk := nutrition.Week{Year: row.Year, Week: row.Week}
		if i == 0 || wk != cur {
			cur = wk
			if _, err := fmt.Fprintf(w, "\nWeek %s\n", wk); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "  • %s (%d×, %.0f kcal)\n", cleanName(row.Food), row.Count, row.Energy); err != nil {
			return err
		}
	}
	return nil
}

func (d weeklyFoodsDoc) csv(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "week", "food", "count", d.r.field(nutrition.Energy)}); err != nil {
		return err
	}
	for _, row := range d.out.Rows {
		rec := []string{
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Week),
			row.Food,
			strconv.Itoa(row.Count),
			strconv.FormatFloat(row.Energy, 'f', 0, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (d weeklyFoodsDoc) markdown(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# Weekly foods\n\nrange %s\n\n", d.out.Range); err != nil {
		return err
	}
	if len(d.out.Rows) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "| Week | Food | Count | kcal |\n|---|---|---:|---:|\n"); err != nil {
		return err
	}
	for _, row := range d.out.Rows {
		wk := nutrition.Week{Year: row.Year, Week: row.Week}
		if _, err := fmt.Fprintf(w, "| %s | %s | %d | %.0f |\n", wk, mdEscape(row.Food), row.Count, row.Energy); err != nil {
			return err
		}
	}
	return nil
}

// WeeklySlots renders the weekly-by-meal-slot report.
func (r *Renderer) WeeklySlots(w io.Writer, f Format, out *ops.WeeklySlotsOutput) error {
	return r.render(w, f, weeklySlotsDoc{out: out}, out)
}

type weeklySlotsDoc struct {
	out *ops.WeeklySlotsOutput
}

func (d weeklySlotsDoc) title() string { return "Weekly foods by meal slot" }

func (d weeklySlotsDoc) text(w io.Writer) error {
	for _, wk := range d.out.Weeks {
		if _, err := fmt.Fprintf(w, "\nWeek %s\n", wk.Week); err != nil {
			return err
		}
		for _, slot := range wk.Slots {
			if _, err := fmt.Fprintf(w, "  %s:\n", slot.Slot); err != nil {
				return err
			}
			for _, fc := range slot.Foods {
				if _, err := fmt.Fprintf(w, "    • %s (%d×)\n", cleanName(fc.Food), fc.Count); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (d weeklySlotsDoc) csv(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "week", "slot", "food", "count"}); err != nil {
		return err
	}
	for _, wk := range d.out.Weeks {
		for _, slot := range wk.Slots {
			for _, fc := range slot.Foods {
				rec := []string{
					strconv.Itoa(wk.Week.Year),
					strconv.Itoa(wk.Week.Week),
					slot.Slot,
					fc.Food,
					strconv.Itoa(fc.Count),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (d weeklySlotsDoc) markdown(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# Weekly foods by meal slot\n\nrange %s\n", d.out.Range); err != nil {
		return err
	}
	for _, wk := range d.out.Weeks {
		if _, err := fmt.Fprintf(w, "\n## Week %s\n", wk.Week); err != nil {
			return err
		}
		for _, slot := range wk.Slots {
			if _, err := fmt.Fprintf(w, "\n### %s\n\n", mdEscape(slot.Slot)); err != nil {
				return err
			}
			for _, fc := range slot.Foods {
				if _, err := fmt.Fprintf(w, "- %s (%d×)\n", mdEscape(fc.Food), fc.Count); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
