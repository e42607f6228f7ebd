package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hpungsan/mealtrace/internal/nutrition"
	"github.com/hpungsan/mealtrace/internal/ops"
)

// Meals renders the Meals report.
func (r *Renderer) Meals(w io.Writer, f Format, out *ops.MealsOutput) error {
	return r.render(w, f, mealsDoc{r: r, out: out}, out)
}

type mealsDoc struct {
	r   *Renderer
	out *ops.MealsOutput
}

func (d mealsDoc) title() string { return "Meals" }

func (d mealsDoc) text(w io.Writer) error {
	for _, m := range d.out.Meals {
		if _, err := fmt.Fprintf(w, "\n%s - Meal %d (%s)\n", m.Date, m.Seq, m.Time); err != nil {
			return err
		}
		for _, food := range m.Foods {
			if _, err := fmt.Fprintf(w, "  • %s\n", cleanName(food)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "  %s\n", macroLine(m.Totals)); err != nil {
			return err
		}
	}
	return nil
}

// formats per kind: energy and water whole units, macros one decimal.
var mealPrecision = [...]int{0, 1, 1, 1, 0}

func (d mealsDoc) csv(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"date", "meal", "time", "foods"}
	for _, k := range nutrition.Kinds {
		header = append(header, d.r.field(k))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, m := range d.out.Meals {
		rec := []string{m.Date, strconv.Itoa(m.Seq), m.Time, strings.Join(m.Foods, "; ")}
		for _, k := range nutrition.Kinds {
			rec = append(rec, strconv.FormatFloat(m.Totals.Get(k), 'f', mealPrecision[k], 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (d mealsDoc) markdown(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# Meals\n\n%d meals, gap %d min, range %s\n", len(d.out.Meals), d.out.GapMinutes, d.out.Range); err != nil {
		return err
	}
	for _, m := range d.out.Meals {
		if _, err := fmt.Fprintf(w, "\n## %s, meal %d (%s)\n\n", m.Date, m.Seq, m.Time); err != nil {
			return err
		}
		for _, food := range m.Foods {
			if _, err := fmt.Fprintf(w, "- %s\n", mdEscape(food)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", macroLine(m.Totals)); err != nil {
			return err
		}
	}
	return nil
}
