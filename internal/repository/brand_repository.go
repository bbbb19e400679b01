package repository

import (
	"context"

	"car-marketplace/internal/domain"
)

var ErrBrandNotFound = domain.NewError(domain.KindNotFound, "brand not found")

const logoBaseURL = "https://raw.githubusercontent.com/filippofilip95/car-logos-dataset/master/logos/thumb/"

type brandEntry struct {
	name   string
	logo   string
	models []string
}

// brandCatalog is served in this order
var brandCatalog = []brandEntry{
	{"Toyota", "toyota.png", []string{"Camry", "Corolla", "RAV4", "Land Cruiser", "Yaris", "Prius", "Hilux", "Tacoma", "4Runner", "Highlander", "Avalon", "Tundra", "Sequoia", "Celica", "Supra", "MR2", "C-HR", "Venza", "Sienna", "Corona"}},
	{"BMW", "bmw.png", []string{"X5", "X3", "3 Series", "5 Series", "7 Series", "X1", "X7", "M3", "M5", "Z4", "i8", "i3", "2 Series", "4 Series", "6 Series", "8 Series", "X6", "M4", "M2", "2002"}},
	{"Mercedes-Benz", "mercedes-benz.png", []string{"E200", "C-Class", "S-Class", "GLA", "GLE", "A-Class", "B-Class", "CLS", "GLC", "GLS", "SL", "SLK", "AMG GT", "CLK", "EQC", "190E", "300SL", "600", "Maybach", "Sprinter"}},
	{"Chevrolet", "chevrolet.png", []string{"Camaro", "Corvette", "Impala", "Malibu", "Silverado", "Tahoe", "Suburban", "Equinox", "Traverse", "Cruze", "Spark", "Aveo", "Volt", "Bolt", "Blazer", "Nova", "Caprice", "Bel Air", "Monte Carlo", "Chevelle"}},
	{"Hyundai", "hyundai.png", []string{"Tucson", "Sonata", "Elantra", "Santa Fe", "Accent", "Kona", "Palisade", "Veloster", "Genesis Coupe", "i10", "i20", "i30", "Azera", "Equus", "XG350", "Staria", "Venue", "IONIQ", "Nexo", "Pony"}},
	{"Kia", "kia.png", []string{"Sportage", "Cerato", "Sorento", "Picanto", "Rio", "Optima", "Carnival", "Stinger", "Telluride", "Seltos", "EV6", "Niro", "Soul", "Forte", "Cadenza", "K5", "K900", "Borrego", "Magentis", "Pride"}},
	{"Audi", "audi.png", []string{"A4", "A6", "Q5", "Q7", "A8", "A3", "A5", "Q3", "Q8", "TT", "R8", "e-tron", "RS6", "S4", "100", "200", "Quattro", "V8", "RS3", "RS7"}},
	{"KGM (Ssangyong)", "ssangyong.png", []string{"Rexton", "Tivoli", "Korando", "Musso", "Actyon", "Chairman", "Stavic", "Rodius", "Korando Sports", "XLV", "Kyron", "Rexton Sports", "Turismo", "XAV", "Damas"}},
	{"Genesis", "genesis.png", []string{"G70", "G80", "G90", "GV70", "GV80", "GV60", "EQ900", "Mint", "Essentia", "X", "New York", "GV90", "G80 Electrified", "GV70 Electrified", "X Speedium Coupe"}},
	{"Renault", "renault.png", []string{"Clio", "Megane", "Captur", "Kadjar", "Duster", "Talisman", "Koleos", "Zoe", "Twingo", "Laguna", "Safrane", "Avantime", "Vel Satis", "Fluence", "Wind", "4CV", "5", "8", "9", "11"}},
	{"Jeep", "jeep.png", []string{"Wrangler", "Grand Cherokee", "Cherokee", "Compass", "Renegade", "Gladiator", "Liberty", "Patriot", "Commander", "Wagoneer", "CJ", "Willys", "FC", "DJ", "Forward Control", "J-Series", "Honcho", "Cherokee XJ", "Grand Wagoneer", "Scrambler"}},
	{"Porsche", "porsche.png", []string{"911", "Cayenne", "Panamera", "Macan", "Taycan", "Boxster", "Cayman", "918 Spyder", "356", "928", "944", "968", "959", "Carrera GT", "Mission E", "550 Spyder", "904", "906", "908", "917"}},
	{"Volkswagen", "volkswagen.png", []string{"Golf", "Passat", "Tiguan", "Jetta", "Polo", "Arteon", "Atlas", "Beetle", "ID.4", "Touareg", "Scirocco", "Type 2", "Karmann Ghia", "Corrado", "Lupo", "Phideon", "Santana", "Vento", "Fox", "Derby"}},
	{"Land Rover", "land rover.png", []string{"Range Rover", "Discovery", "Defender", "Range Rover Sport", "Range Rover Evoque", "Range Rover Velar", "Freelander", "Discovery Sport", "Series I", "Series II", "Series III", "Range Rover Classic", "Range Rover P38", "Range Rover L322", "DC100", "LR2", "LR3", "LR4", "Range Rover SVAutobiography", "Range Rover PHEV"}},
	{"Mini", "mini.png", []string{"Cooper", "Countryman", "Clubman", "Paceman", "Convertible", "Coupe", "Roadster", "John Cooper Works", "GP", "Electric", "Mini E", "Mini 1000", "Mini 1275GT", "Mini Van", "Mini Pickup", "Mini Moke", "Mini Traveller", "Mini Cooper S", "Mini One", "Mini Seven"}},
	{"Honda", "honda.png", []string{"Civic", "Accord", "CR-V", "Pilot", "Odyssey", "Fit", "HR-V", "Ridgeline", "Passport", "Insight", "S2000", "NSX", "Prelude", "Integra", "Legend", "Jazz", "City", "N-One", "N-Box", "Acty"}},
	{"Lexus", "lexus.png", []string{"ES", "RX", "NX", "LS", "GX", "LX", "UX", "LC", "RC", "IS", "CT", "HS", "LFA", "SC", "GS", "ES Hybrid", "RX Hybrid", "NX Hybrid", "LS Hybrid", "UX Hybrid"}},
	{"Ford", "ford.png", []string{"F-150", "Mustang", "Explorer", "Focus", "Escape", "Ranger", "Edge", "Fiesta", "Bronco", "Expedition", "Taurus", "Model T", "Thunderbird", "GT", "Fusion", "Galaxie", "Fairlane", "Pinto", "Festiva", "Probe"}},
	{"Nissan", "nissan.png", []string{"Altima", "Maxima", "Rogue", "Sentra", "Pathfinder", "Murano", "Frontier", "Titan", "370Z", "GT-R", "Leaf", "Versa", "Juke", "X-Trail", "Sunny", "Patrol", "Silvia", "Skyline", "Pulsar", "Micra"}},
	{"Volvo", "volvo.png", []string{"XC90", "XC60", "XC40", "S90", "S60", "V90", "V60", "V40", "240", "740", "850", "C30", "P1800", "Amazon", "PV544", "S40", "S70", "V70", "XC70", "Polestar"}},
	{"Peugeot", "peugeot.png", []string{"208", "308", "508", "2008", "3008", "5008", "108", "407", "607", "RCZ", "Partner", "Expert", "Boxer", "504", "505", "604", "205", "206", "207", "106"}},
	{"Tesla", "tesla.png", []string{"Model S", "Model 3", "Model X", "Model Y", "Cybertruck", "Roadster", "Semi", "Model S Plaid", "Model X Plaid", "Model 3 Performance"}},
	{"Maserati", "maserati.png", []string{"Ghibli", "Quattroporte", "Levante", "GranTurismo", "MC20", "GranCabrio", "3200 GT", "Coupe", "Spyder", "Bora", "Merak", "Khamsin", "Indy", "Sebring", "Mexico", "Shamal", "Barchetta", "A6", "8C", "Tipo 61"}},
	{"Suzuki", "suzuki.png", []string{"Swift", "Vitara", "Jimny", "Baleno", "Celerio", "Ignis", "SX4", "Alto", "Wagon R", "Kizashi", "Samurai", "Sidekick", "Esteem", "Grand Vitara", "XL7", "Cappuccino", "Carry", "Liana", "Splash", "X-90"}},
}

// BrandRepository serves the static manufacturer catalog
type BrandRepository interface {
	List(ctx context.Context) ([]domain.Brand, error)
	FindByID(ctx context.Context, id string) (*domain.Brand, error)
}

type brandRepository struct {
	byID   map[string]int
	brands []brandEntry
}

// NewBrandRepository creates a BrandRepository over the built-in catalog
func NewBrandRepository() BrandRepository {
	byID := make(map[string]int, len(brandCatalog))
	for i, entry := range brandCatalog {
		byID[entry.name] = i
	}
	return &brandRepository{byID: byID, brands: brandCatalog}
}

func (e brandEntry) toDomain() domain.Brand {
	models := make([]string, len(e.models))
	copy(models, e.models)
	return domain.Brand{
		ID:        e.name,
		Name:      e.name,
		LogoURL:   logoBaseURL + e.logo,
		Models:    models,
		CarsCount: len(models),
	}
}

// List returns every brand of the catalog
func (r *brandRepository) List(_ context.Context) ([]domain.Brand, error) {
	brands := make([]domain.Brand, 0, len(r.brands))
	for _, entry := range r.brands {
		brands = append(brands, entry.toDomain())
	}
	return brands, nil
}

// FindByID returns the brand whose ID (its exact name) matches id
func (r *brandRepository) FindByID(_ context.Context, id string) (*domain.Brand, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, ErrBrandNotFound
	}
	brand := r.brands[i].toDomain()
	return &brand, nil
}
