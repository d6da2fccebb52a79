package domain

import "regexp"

// postalRegexes maps country codes to the expected postal code format.
// Countries without an entry are not format-checked.
var postalRegexes = map[string]*regexp.Regexp{
	"US": regexp.MustCompile(`^\d{5}([ \-]\d{4})?$`),
	"CA": regexp.MustCompile(`^[ABCEGHJKLMNPRSTVXY]\d[ABCEGHJ-NPRSTV-Z][ ]?\d[ABCEGHJ-NPRSTV-Z]\d$`),
	"UK": regexp.MustCompile(`^GIR[ ]?0AA|((AB|AL|B|BA|BB|BD|BH|BL|BN|BR|BS|BT|CA|CB|CF|CH|CM|CO|CR|CT|CV|CW|DA|DD|DE|DG|DH|DL|DN|DT|DY|E|EC|EH|EN|EX|FK|FY|G|GL|GY|GU|HA|HD|HG|HP|HR|HS|HU|HX|IG|IM|IP|IV|JE|KA|KT|KW|KY|L|LA|LD|LE|LL|LN|LS|LU|M|ME|MK|ML|N|NE|NG|NN|NP|NR|NW|OL|OX|PA|PE|PH|PL|PO|PR|RG|RH|RM|S|SA|SE|SG|SK|SL|SM|SN|SO|SP|SR|SS|ST|SW|SY|TA|TD|TF|TN|TQ|TR|TS|TW|UB|W|WA|WC|WD|WF|WN|WR|WS|WV|YO|ZE)(\d[\dA-Z]?[ ]?\d[ABD-HJLN-UW-Z]{2}))|BFPO[ ]?\d{1,4}$`),
	"FR": regexp.MustCompile(`^\d{2}[ ]?\d{3}$`),
	"IT": regexp.MustCompile(`^\d{5}$`),
	"DE": regexp.MustCompile(`^\d{5}$`),
	"NL": regexp.MustCompile(`^\d{4}[ ]?[A-Z]{2}$`),
	"ES": regexp.MustCompile(`^\d{5}$`),
	"DK": regexp.MustCompile(`^\d{4}$`),
	"SE": regexp.MustCompile(`^\d{3}[ ]?\d{2}$`),
	"BE": regexp.MustCompile(`^\d{4}$`),
	"IN": regexp.MustCompile(`^\d{6}$`),
	"AU": regexp.MustCompile(`^\d{4}$`),
}

// IsPostalCodeValid checks a destination zip against the country's expected
// format. The rate service accepts requests with no zip outside the US, so an
// empty zip only fails for US destinations. Unknown countries pass.
func IsPostalCodeValid(country, zip string) bool {
	re, ok := postalRegexes[country]
	if !ok {
		return true
	}

	if zip == "" {
		return country != "US"
	}

	return re.MatchString(zip)
}
