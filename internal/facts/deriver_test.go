package facts

import (
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestDeriveAgeBands(t *testing.T) {
	d := NewDeriver(nil)

	set := d.Derive(domain.ApplicantInput{"age": 30})
	if !set.Has(FactAge18to75) {
		t.Errorf("expected %s for age 30", FactAge18to75)
	}

	set = d.Derive(domain.ApplicantInput{"age": 16})
	if !set.Has(FactAgeUnder18) {
		t.Errorf("expected %s for age 16", FactAgeUnder18)
	}
	if set.Has(FactAge18to75) {
		t.Errorf("did not expect %s for age 16", FactAge18to75)
	}

	set = d.Derive(domain.ApplicantInput{"age": 80})
	if !set.Has(FactAgeOver75) {
		t.Errorf("expected %s for age 80", FactAgeOver75)
	}
}

func TestDeriveIncomeCumulative(t *testing.T) {
	d := NewDeriver(nil)

	set := d.Derive(domain.ApplicantInput{"monthly_income": 4 * SMMLV})
	for _, want := range []string{FactIncomeMin1, FactIncomeMin2, FactIncomeMin3, FactIncomeMin4} {
		if !set.Has(want) {
			t.Errorf("expected %s for income of 4 SMMLV", want)
		}
	}
	if set.Has(FactIncomeMin5) {
		t.Errorf("did not expect %s for income of 4 SMMLV", FactIncomeMin5)
	}

	set = d.Derive(domain.ApplicantInput{"monthly_income": 500_000})
	if !set.Has(FactIncomeLow) {
		t.Errorf("expected %s for income below 1 SMMLV", FactIncomeLow)
	}
	if set.Has(FactIncomeMin1) {
		t.Errorf("did not expect %s for income below 1 SMMLV", FactIncomeMin1)
	}
}

func TestDeriveScoreBands(t *testing.T) {
	d := NewDeriver(nil)

	set := d.Derive(domain.ApplicantInput{"credit_score": 750})
	if !set.Has(FactScoreMin300) || !set.Has(FactScore700Plus) {
		t.Errorf("expected min-300 and 700-plus facts for score 750, got %v", set.Codes())
	}

	set = d.Derive(domain.ApplicantInput{"credit_score": 200})
	if !set.Has(FactScoreLow) {
		t.Errorf("expected %s for score 200", FactScoreLow)
	}
	if set.Has(FactScore300to499) {
		t.Errorf("did not expect a score band for score 200")
	}

	set = d.Derive(domain.ApplicantInput{"credit_score": 550})
	if !set.Has(FactScore500to699) {
		t.Errorf("expected %s for score 550", FactScore500to699)
	}
}

func TestDeriveInclusiveDelinquency(t *testing.T) {
	d := NewDeriver(nil)

	set := d.Derive(domain.ApplicantInput{"max_days_delinquency": 20})
	for _, want := range []string{FactMoraMax30, FactMoraMax60, FactMoraMax90} {
		if !set.Has(want) {
			t.Errorf("expected %s for delinquency of 20 days", want)
		}
	}

	set = d.Derive(domain.ApplicantInput{"max_days_delinquency": 75})
	if !set.Has(FactMoraMax90) || !set.Has(FactMora31to90) {
		t.Errorf("expected max-90 and 31-90 facts for 75 days, got %v", set.Codes())
	}
	if set.Has(FactMoraMax30) || set.Has(FactMoraMax60) {
		t.Errorf("did not expect 30/60 facts for 75 days")
	}

	set = d.Derive(domain.ApplicantInput{"max_days_delinquency": 120})
	if !set.Has(FactMoraSevere) {
		t.Errorf("expected %s for 120 days", FactMoraSevere)
	}
	if set.Has(FactMoraMax90) {
		t.Errorf("did not expect %s for 120 days", FactMoraMax90)
	}
}

func TestDeriveRatioNormalization(t *testing.T) {
	d := NewDeriver(nil)

	fraction := d.Derive(domain.ApplicantInput{"debt_to_income_ratio": 0.4})
	percentage := d.Derive(domain.ApplicantInput{"debt_to_income_ratio": 40})

	fc := fraction.Codes()
	pc := percentage.Codes()
	if len(fc) != len(pc) {
		t.Fatalf("fraction and percentage inputs derived different fact counts: %v vs %v", fc, pc)
	}
	for i := range fc {
		if fc[i] != pc[i] {
			t.Errorf("fact mismatch at %d: %s vs %s", i, fc[i], pc[i])
		}
	}
	if !fraction.Has(FactDebtMax50) {
		t.Errorf("expected %s for ratio 0.4", FactDebtMax50)
	}

	excessive := d.Derive(domain.ApplicantInput{"debt_to_income_ratio": 0.7})
	if !excessive.Has(FactDebtExcessive) {
		t.Errorf("expected %s for ratio 0.7", FactDebtExcessive)
	}
}

func TestDeriveSarlaftActivity(t *testing.T) {
	d := NewDeriver(nil)

	set := d.Derive(domain.ApplicantInput{"economic_activity": "casinos"})
	if !set.Has(FactSarlaftHigh) {
		t.Errorf("expected %s for casinos", FactSarlaftHigh)
	}

	set = d.Derive(domain.ApplicantInput{"economic_activity": "comercio"})
	if !set.Has(FactSarlaftLow) {
		t.Errorf("expected %s for comercio", FactSarlaftLow)
	}
}

func TestDerivePensionerFacts(t *testing.T) {
	d := NewDeriver(nil)

	set := d.Derive(domain.ApplicantInput{
		"employment_type":  "pensionado",
		"pension_amount":   3 * SMMLV,
		"is_legal_pension": true,
	})
	for _, want := range []string{FactPensioner, FactPension2S, FactPensionLegal} {
		if !set.Has(want) {
			t.Errorf("expected %s, got %v", want, set.Codes())
		}
	}
}

func TestDeriveSkipsMalformedFields(t *testing.T) {
	d := NewDeriver(nil)

	set := d.Derive(domain.ApplicantInput{
		"age":            "not a number",
		"monthly_income": nil,
		"is_pep":         "yes",
	})
	if set.Len() != 0 {
		t.Errorf("expected no facts from malformed input, got %v", set.Codes())
	}
}

func TestDeriveDeterministicOrder(t *testing.T) {
	d := NewDeriver(nil)
	input := domain.ApplicantInput{
		"age":                  30,
		"monthly_income":       3_000_000,
		"credit_score":         750,
		"max_days_delinquency": 10,
		"credit_purpose":       "vivienda",
	}

	first := d.Derive(input).Codes()
	second := d.Derive(input).Codes()
	if len(first) != len(second) {
		t.Fatalf("runs derived different counts: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("order mismatch at %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestSetDeduplicates(t *testing.T) {
	set := NewSet()
	set.Add("FACT_A")
	set.Add("FACT_B")
	set.Add("FACT_A")

	if set.Len() != 2 {
		t.Errorf("expected 2 facts after duplicate add, got %d", set.Len())
	}
	codes := set.Codes()
	if codes[0] != "FACT_A" || codes[1] != "FACT_B" {
		t.Errorf("unexpected order: %v", codes)
	}
}
