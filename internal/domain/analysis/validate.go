package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// wire shapes use pointers so a missing field can be told apart from a zero value
type wireResult struct {
	ProductName   *string           `json:"productName"`
	HealthScore   *float64          `json:"healthScore"`
	Verdict       *string           `json:"verdict"`
	Summary       string            `json:"summary"`
	Composition   *wireComposition  `json:"composition"`
	Nutrition     *wireNutrition    `json:"nutrition"`
	Ingredients   *[]wireIngredient `json:"ingredients"`
	AllergyAlerts []string          `json:"allergyAlerts"`
}

type wireComposition struct {
	Safe         *float64 `json:"safe"`
	Questionable *float64 `json:"questionable"`
	Harmful      *float64 `json:"harmful"`
}

type wireNutrition struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fats     *float64 `json:"fats"`
	Sugar    *float64 `json:"sugar"`
}

type wireIngredient struct {
	Name        *string  `json:"name"`
	Risk        *string  `json:"risk"`
	Impact      string   `json:"impact"`
	Tags        []string `json:"tags"`
	Alternative *string  `json:"alternative"`
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaViolation, fmt.Sprintf(format, args...))
}

// Validate decodes the text payload of the reasoning service and enforces the
// result schema. Unknown fields are ignored. The returned Result has no ID or
// timestamp yet.
func Validate(raw string) (Result, error) {
	body := StripCodeFence(raw)
	if body == "" {
		return Result{}, violation("empty document")
	}

	var w wireResult
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return Result{}, violation("decode: %v", err)
	}

	if w.ProductName == nil || strings.TrimSpace(*w.ProductName) == "" {
		return Result{}, violation("productName is missing")
	}
	if w.Verdict == nil {
		return Result{}, violation("verdict is missing")
	}
	verdict := Verdict(*w.Verdict)
	if !verdict.Valid() {
		return Result{}, violation("verdict %q not in {Safe, Caution, Avoid}", *w.Verdict)
	}
	score, err := healthScore(w.HealthScore)
	if err != nil {
		return Result{}, err
	}
	comp, err := composition(w.Composition)
	if err != nil {
		return Result{}, err
	}
	nut, err := nutrition(w.Nutrition)
	if err != nil {
		return Result{}, err
	}
	ingredients, err := ingredientFindings(w.Ingredients)
	if err != nil {
		return Result{}, err
	}

	alerts := w.AllergyAlerts
	if alerts == nil {
		alerts = []string{}
	}

	return Result{
		ProductName:   strings.TrimSpace(*w.ProductName),
		HealthScore:   score,
		Verdict:       verdict,
		Summary:       w.Summary,
		Composition:   comp,
		Nutrition:     nut,
		Ingredients:   ingredients,
		AllergyAlerts: alerts,
	}, nil
}

func healthScore(n *float64) (int, error) {
	if n == nil {
		return 0, violation("healthScore is missing")
	}
	f := *n
	if f != math.Trunc(f) {
		return 0, violation("healthScore %v is not an integer", f)
	}
	if f < 0 || f > 100 {
		return 0, violation("healthScore %v out of range 0-100", f)
	}
	return int(f), nil
}

func composition(c *wireComposition) (Composition, error) {
	if c == nil {
		return Composition{}, violation("composition is missing")
	}
	fields := []struct {
		name string
		v    *float64
	}{{"safe", c.Safe}, {"questionable", c.Questionable}, {"harmful", c.Harmful}}
	for _, f := range fields {
		if f.v == nil {
			return Composition{}, violation("composition.%s is missing", f.name)
		}
		if *f.v < 0 || *f.v > 100 {
			return Composition{}, violation("composition.%s %v out of range 0-100", f.name, *f.v)
		}
	}
	return Composition{
		Safe:         int(math.Round(*c.Safe)),
		Questionable: int(math.Round(*c.Questionable)),
		Harmful:      int(math.Round(*c.Harmful)),
	}, nil
}

func nutrition(n *wireNutrition) (Nutrition, error) {
	if n == nil {
		return Nutrition{}, violation("nutrition is missing")
	}
	fields := []struct {
		name string
		v    *float64
	}{
		{"calories", n.Calories}, {"protein", n.Protein}, {"carbs", n.Carbs},
		{"fats", n.Fats}, {"sugar", n.Sugar},
	}
	for _, f := range fields {
		if f.v == nil {
			return Nutrition{}, violation("nutrition.%s is missing", f.name)
		}
	}
	return Nutrition{
		Calories: *n.Calories,
		Protein:  *n.Protein,
		Carbs:    *n.Carbs,
		Fats:     *n.Fats,
		Sugar:    *n.Sugar,
	}, nil
}

func ingredientFindings(in *[]wireIngredient) ([]IngredientFinding, error) {
	if in == nil {
		return nil, violation("ingredients is missing")
	}
	out := make([]IngredientFinding, 0, len(*in))
	for i, w := range *in {
		if w.Name == nil || strings.TrimSpace(*w.Name) == "" {
			return nil, violation("ingredients[%d].name is missing", i)
		}
		if w.Risk == nil {
			return nil, violation("ingredients[%d].risk is missing", i)
		}
		risk := Risk(*w.Risk)
		if !risk.Valid() {
			return nil, violation("ingredients[%d].risk %q not in {Low, Medium, High}", i, *w.Risk)
		}
		tags := w.Tags
		if tags == nil {
			tags = []string{}
		}
		var alt *string
		if w.Alternative != nil && strings.TrimSpace(*w.Alternative) != "" {
			s := *w.Alternative
			alt = &s
		}
		out = append(out, IngredientFinding{
			Name:        strings.TrimSpace(*w.Name),
			Risk:        risk,
			Impact:      w.Impact,
			Tags:        tags,
			Alternative: alt,
		})
	}
	return out, nil
}

// StripCodeFence removes a surrounding ```json ... ``` block some models add
// even when asked for bare JSON.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
