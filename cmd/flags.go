package cmd

import (
	"flag"

	"github.com/bdebruin1014/proforma"
	"github.com/shopspring/decimal"
)

// decimalFlag is a flag.Value for exact amounts and percents.
type decimalFlag struct {
	value decimal.Decimal
	set   bool
}

func (d *decimalFlag) String() string {
	if !d.set {
		return ""
	}
	return d.value.String()
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	d.value, d.set = v, true
	return nil
}

// money returns the flag value in currency.
func (d *decimalFlag) money(currency string) proforma.Money { return proforma.M(d.value, currency) }

func (d *decimalFlag) percent() proforma.Percent { return proforma.P(d.value) }

// versionFlag is a flag.Value for version identifiers.
type versionFlag struct {
	id proforma.VersionID
}

func (v *versionFlag) String() string {
	if v.id.IsZero() {
		return ""
	}
	return v.id.String()
}

func (v *versionFlag) Set(s string) error {
	id, err := proforma.ParseVersionID(s)
	if err != nil {
		return err
	}
	v.id = id
	return nil
}

func bump(major bool) proforma.Bump {
	if major {
		return proforma.Major
	}
	return proforma.Minor
}

// isSet reports whether the flag name was set on the command line.
func isSet(f *flag.FlagSet, name string) bool {
	found := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// currency returns the currency of the current version of s.
func currency(s *proforma.Service) string {
	v, err := s.View()
	if err != nil {
		return proforma.DefaultCurrency
	}
	return v.Version.Snapshot.Currency()
}
