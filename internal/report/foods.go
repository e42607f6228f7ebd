package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hpungsan/mealtrace/internal/nutrition"
	"github.com/hpungsan/mealtrace/internal/ops"
)

// Foods renders the Foods report.
func (r *Renderer) Foods(w io.Writer, f Format, out *ops.FoodsOutput) error {
	return r.render(w, f, foodsDoc{r: r, out: out}, out)
}

type foodsDoc struct {
	r   *Renderer
	out *ops.FoodsOutput
}

func (d foodsDoc) title() string { return "Food events" }

func (d foodsDoc) text(w io.Writer) error {
	for _, row := range d.out.Foods {
		n := row.Nutrients
		if _, err := fmt.Fprintf(w, "%s %s  %s (%s)\n  %s\n",
			row.Date, row.Time, cleanName(row.Food), row.Slot, macroLine(n)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d food events\n", len(d.out.Foods))
	return err
}

func (d foodsDoc) csv(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"date", "time", "food"}
	for _, k := range nutrition.Kinds {
		header = append(header, d.r.field(k))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range d.out.Foods {
		rec := []string{row.Date, row.Time, row.Food}
		for _, k := range nutrition.Kinds {
			rec = append(rec, strconv.FormatFloat(row.Nutrients.Get(k), 'f', 2, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (d foodsDoc) markdown(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# Food events\n\n%d events, range %s\n\n", len(d.out.Foods), d.out.Range); err != nil {
		return err
	}
	if len(d.out.Foods) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "| Date | Time | Food | Slot | kcal | Protein g | Carbs g | Fat g | Water ml |\n|---|---|---|---|---:|---:|---:|---:|---:|\n"); err != nil {
		return err
	}
	for _, row := range d.out.Foods {
		n := row.Nutrients
		if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s | %.0f | %.1f | %.1f | %.1f | %.0f |\n",
			row.Date, row.Time, mdEscape(row.Food), mdEscape(row.Slot),
			n.Get(nutrition.Energy), n.Get(nutrition.Protein), n.Get(nutrition.Carbohydrate),
			n.Get(nutrition.Fat), n.Get(nutrition.Water)); err != nil {
			return err
		}
	}
	return nil
}

// macroLine is the one-line nutrient summary used by the text layouts.
func macroLine(n nutrition.Nutrients) string {
	return fmt.Sprintf("Calories: %.0f kcal | Protein: %.1f g | Carbs: %.1f g | Fat: %.1f g",
		n.Get(nutrition.Energy), n.Get(nutrition.Protein), n.Get(nutrition.Carbohydrate), n.Get(nutrition.Fat))
}
