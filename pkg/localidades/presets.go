package localidades

// Static preset groupings the dashboard offers as one-click comparisons.
// These are stable political/statistical groupings, not API data.

// Regioes maps each preset region to its UF siglas.
var Regioes = map[string][]string{
	"Norte":          {"AC", "AM", "AP", "PA", "RO", "RR", "TO"},
	"Nordeste":       {"AL", "BA", "CE", "MA", "PB", "PE", "PI", "RN", "SE"},
	"Centro-Oeste":   {"DF", "GO", "MT", "MS"},
	"Sudeste":        {"ES", "MG", "RJ", "SP"},
	"Sul":            {"PR", "RS", "SC"},
	"Amazônia Legal": {"AC", "AM", "AP", "PA", "RO", "RR", "TO", "MA", "MT"},
}

// Capitais maps each state capital to its UF sigla.
var Capitais = map[string]string{
	"Rio Branco": "AC", "Manaus": "AM", "Macapá": "AP", "Belém": "PA", "Porto Velho": "RO",
	"Boa Vista": "RR", "Palmas": "TO", "São Luís": "MA", "Teresina": "PI", "Fortaleza": "CE",
	"Natal": "RN", "João Pessoa": "PB", "Recife": "PE", "Maceió": "AL", "Aracaju": "SE",
	"Salvador": "BA", "Cuiabá": "MT", "Campo Grande": "MS", "Goiânia": "GO", "Brasília": "DF",
	"Vitória": "ES", "Belo Horizonte": "MG", "Rio de Janeiro": "RJ", "São Paulo": "SP",
	"Curitiba": "PR", "Florianópolis": "SC", "Porto Alegre": "RS",
}
