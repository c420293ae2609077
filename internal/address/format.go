// Package address lays out postal addresses in the line order customary for
// the destination country, using the libaddressinput formats shipped with
// github.com/Boostport/address.
package address

import (
	"strings"

	libaddress "github.com/Boostport/address"
)

// Address is one postal address as it appears in a résumé's location block.
type Address struct {
	Lines       []string
	City        string
	Region      string
	PostalCode  string
	CountryCode string
}

// Language selects the names used for administrative areas where the
// country data has them.
const Language = "en"

var formatter = libaddress.DefaultFormatter{Output: libaddress.StringOutputter{}}

// Format returns the non-empty lines of a in display order.
func Format(a Address) []string {
	var street []string
	for _, l := range a.Lines {
		if l = strings.TrimSpace(l); l != "" {
			street = append(street, l)
		}
	}
	la := libaddress.Address{
		Country:            strings.ToUpper(strings.TrimSpace(a.CountryCode)),
		StreetAddress:      street,
		Locality:           strings.TrimSpace(a.City),
		AdministrativeArea: strings.TrimSpace(a.Region),
		PostCode:           strings.TrimSpace(a.PostalCode),
	}
	if len(street) == 0 && la.Locality == "" && la.AdministrativeArea == "" && la.PostCode == "" {
		return nil
	}

	text, ok := render(la)
	if !ok {
		return generic(street, la)
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// render formats la with the country's layout. ok is false when the country
// is missing or unknown to the address data.
func render(la libaddress.Address) (text string, ok bool) {
	if la.Country == "" {
		return "", false
	}
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()
	text = formatter.Format(la, Language)
	return text, strings.TrimSpace(text) != ""
}

// generic is the layout for addresses without a usable country: street lines,
// then city, region and postal code on one line.
func generic(street []string, la libaddress.Address) []string {
	out := append([]string(nil), street...)
	if last := strings.Join(strings.Fields(la.Locality+" "+la.AdministrativeArea+" "+la.PostCode), " "); last != "" {
		out = append(out, last)
	}
	return out
}

// Parse builds an Address from the flat fields of a résumé location, where the
// street part may span several lines separated by newlines.
func Parse(street, city, region, postalCode, countryCode string) Address {
	var lines []string
	if street != "" {
		lines = strings.Split(strings.ReplaceAll(street, "\r\n", "\n"), "\n")
	}
	return Address{
		Lines:       lines,
		City:        city,
		Region:      region,
		PostalCode:  postalCode,
		CountryCode: countryCode,
	}
}
