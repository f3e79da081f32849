package lexicon

// CropTable is the source of truth for crop standardization: commodity
// category → standardized crop name → aliases seen in trade messages.
// Alias matching is case-insensitive; the standardized name itself always
// resolves. Aliases must stay unique across the whole table; duplicates are a
// configuration defect that Verify reports.
var CropTable = Table{
	"PULSES": {
		"TOOR DAL":     {"TUR", "TOOR", "TUVAR", "ARHAR", "ARHAR DAL", "TUR DAL", "TOOR DALL"},
		"CHANA":        {"GRAM", "BENGAL GRAM", "CHANNA", "HARBHARA", "DESI CHANA"},
		"CHANA DAL":    {"GRAM DAL", "CHANNA DAL"},
		"KABULI CHANA": {"CHICKPEA", "CHICKPEAS", "CHHOLE", "KABULI"},
		"MOONG":        {"GREEN GRAM", "MUNG", "MUG", "MOONG SABUT"},
		"MOONG DAL":    {"MUNG DAL", "GREEN GRAM DAL"},
		"URAD":         {"BLACK GRAM", "UDID", "URID", "URAD SABUT"},
		"URAD DAL":     {"URID DAL", "UDID DAL"},
		"MASOOR":       {"LENTIL", "MASUR", "MASOOR SABUT"},
		"MASOOR DAL":   {"MASUR DAL", "RED LENTIL"},
		"MATAR":        {"PEAS", "WHITE PEAS", "BATANA", "WATANA"},
		"RAJMA":        {"KIDNEY BEANS", "RAJMAH"},
		"LAKHODI DAL":  {"LAKH", "LAKHORI", "LAKHODI"},
	},
	"GRAINS": {
		"WHEAT":  {"GEHU", "GAHU", "KANAK", "GEHUN"},
		"RICE":   {"CHAWAL", "TANDUL", "CHAVAL"},
		"PADDY":  {"DHAN", "BHAT"},
		"MAIZE":  {"CORN", "MAKKA", "MAKAI"},
		"JOWAR":  {"SORGHUM", "JWARI", "JUAR"},
		"BAJRA":  {"PEARL MILLET", "BAJRI"},
		"BARLEY": {"JAU"},
	},
	"SPICES": {
		"TURMERIC":   {"HALDI", "HALAD", "TURMERIC FINGER"},
		"RED CHILLI": {"MIRCHI", "LAL MIRCH", "CHILLI", "DRY CHILLI"},
		"CORIANDER":  {"DHANIYA", "DHANA", "DHANIA"},
		"CUMIN":      {"JEERA", "ZEERA", "JIRA"},
		"GINGER":     {"ADRAK", "ALE"},
		"GARLIC":     {"LAHSUN", "LASUN"},
		"FENUGREEK":  {"METHI", "METHI DANA"},
	},
	"OILSEEDS": {
		"SOYBEAN":     {"SOYA", "SOYABEAN", "SOYABIN"},
		"GROUNDNUT":   {"PEANUT", "MOONGFALI", "SHENGDANA", "SINGDANA"},
		"MUSTARD":     {"SARSO", "SARSON", "RAI", "MOHARI"},
		"SESAME":      {"TIL", "TILLI", "GINGELLY"},
		"SUNFLOWER":   {"SURAJMUKHI"},
		"COTTON SEED": {"KAPASIA", "SARKI"},
		"LINSEED":     {"ALSI", "JAWAS"},
	},
	"VEGETABLES": {
		"ONION":    {"PYAJ", "KANDA", "PYAZ"},
		"POTATO":   {"ALOO", "BATATA", "ALU"},
		"TOMATO":   {"TAMATAR"},
		"TAMARIND": {"IMLI", "CHINCH"},
		"GGR":      {"GREEN GINGER"},
	},
}
