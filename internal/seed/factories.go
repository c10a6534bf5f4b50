package seed

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"storefront/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "Storefront-Demo-2024"

// productNames are the names fake products pick from, by leaf category slug.
// Categories without an entry get faker words.
var productNames = map[string][]string{
	"bread":          {"Rye bread", "Baguette", "Ciabatta", "Sourdough loaf", "Borodinsky bread", "Wholegrain toast bread"},
	"pastry":         {"Croissant", "Cinnamon roll", "Apple strudel", "Poppy seed bun", "Cheese danish"},
	"milk-and-kefir": {"Milk 3.2%", "Milk 1.5%", "Kefir 2.5%", "Baked milk", "Ayran"},
	"cheese":         {"Gouda", "Cheddar", "Mozzarella", "Feta", "Cottage cheese"},
	"yogurt":         {"Greek yogurt", "Strawberry yogurt", "Drinking yogurt", "Skyr"},
	"juice":          {"Apple juice", "Orange juice", "Tomato juice", "Cherry nectar"},
	"water":          {"Still water", "Sparkling water", "Mineral water"},
}

var packSizes = []string{"250 g", "400 g", "500 g", "900 ml", "1 l", "1 kg"}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker

	passwordHash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed seeds from
// the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

func (f *Factory) password() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.passwordHash = string(hash)
	return f.passwordHash, nil
}

func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	return time.Now().Add(-time.Duration(f.faker.Number(0, maxDays*24)) * time.Hour)
}

func (f *Factory) persist(v any, setID func(uint)) error {
	if f.opts.DryRun {
		setID(f.nextID)
		f.nextID++
		return nil
	}
	return f.db.Create(v).Error
}

// CreateUser creates an active customer signed in with DefaultPassword.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.password()
	if err != nil {
		return nil, err
	}

	first, last := f.faker.FirstName(), f.faker.LastName()
	suffix := strings.ToLower(f.faker.LetterN(4))
	user := &models.User{
		Username:    strings.ToLower(first+"."+last) + "." + suffix,
		Email:       strings.ToLower(first+"."+last+"."+suffix) + "@example.com",
		PhoneNumber: f.faker.Numerify("+7 (9##) ###-##-##"),
		FirstName:   first,
		LastName:    last,
		Password:    hash,
		IsActive:    true,
		DateJoined:  f.createdAt(),
	}
	for _, o := range overrides {
		o(user)
	}

	if err := f.persist(user, func(id uint) { user.ID = id }); err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildProduct returns an unsaved product in category. One in four products
// carries a discount.
func (f *Factory) BuildProduct(category *models.Category) *models.Product {
	base := f.productName(category.Slug)
	size := f.faker.RandomString(packSizes)
	name := base + ", " + size
	code := strings.ToLower(f.faker.LetterN(6))

	discount := decimal.Zero
	if f.faker.Number(1, 4) == 1 {
		discount = decimal.NewFromInt(int64(f.faker.RandomInt([]int{5, 10, 15, 20, 25, 30})))
	}

	unit := models.UnitPiece
	switch {
	case strings.HasSuffix(size, " kg"):
		unit = models.UnitKilogram
	case strings.HasSuffix(size, " ml"), strings.HasSuffix(size, " l"):
		unit = models.UnitLiter
	}

	return &models.Product{
		Name:        name,
		Slug:        slugify(base) + "-" + code,
		Description: f.faker.Paragraph(1, 3, 12, " "),
		Composition: f.faker.Sentence(10),
		UnitType:    unit,
		Price:       decimal.NewFromFloat(f.faker.Price(39, 990)).Round(2),
		Discount:    discount,
		CategoryID:  category.ID,
		SKU:         "SF-" + strings.ToUpper(code),
		Stock:       f.faker.Number(0, 200),
		IsActive:    f.faker.Number(1, 10) > 1,
		Nutrition: &models.ProductNutrition{
			Calories: nullDecimal(f.faker.Float64Range(20, 450)),
			Proteins: nullDecimal(f.faker.Float64Range(0, 30)),
			Fats:     nullDecimal(f.faker.Float64Range(0, 35)),
			Carbs:    nullDecimal(f.faker.Float64Range(0, 70)),
		},
		CreatedAt: f.createdAt(),
	}
}

func (f *Factory) productName(categorySlug string) string {
	if names, ok := productNames[categorySlug]; ok {
		return f.faker.RandomString(names)
	}
	switch categorySlug {
	case "fruit":
		return f.faker.Fruit()
	case "vegetables":
		return f.faker.Vegetable()
	}
	return capitalize(f.faker.Adjective() + " " + f.faker.NounCommon())
}

// CreateProduct stores a fake product in category with a value for each of
// attributes.
func (f *Factory) CreateProduct(category *models.Category, attributes []models.Attribute, overrides ...func(*models.Product)) (*models.Product, error) {
	p := f.BuildProduct(category)
	for _, a := range attributes {
		p.Attributes = append(p.Attributes, models.ProductAttribute{
			AttributeID: a.ID,
			Value:       f.attributeValue(a.Name),
		})
	}
	for _, o := range overrides {
		o(p)
	}

	if err := f.persist(p, func(id uint) { p.ID = id }); err != nil {
		return nil, fmt.Errorf("create product %s: %w", p.Slug, err)
	}
	return p, nil
}

func (f *Factory) attributeValue(name string) string {
	switch name {
	case "Country of origin":
		return f.faker.Country()
	case "Shelf life":
		return fmt.Sprintf("%d days", f.faker.Number(3, 365))
	case "Storage conditions":
		return f.faker.RandomString([]string{"+2 to +6 °C", "Room temperature", "Dry, dark place"})
	default:
		return f.faker.RandomString([]string{"Carton", "Glass bottle", "Paper bag", "Vacuum pack"})
	}
}

// BuildVacancy returns an unsaved active vacancy. Salaries are either a
// range, a lower bound only, or absent.
func (f *Factory) BuildVacancy(cityID, areaID uint) *models.Vacancy {
	v := &models.Vacancy{
		Title:              capitalize(f.faker.JobDescriptor() + " " + strings.ToLower(f.faker.JobTitle())),
		ShortDescription:   f.faker.Sentence(10),
		Description:        f.faker.Paragraph(3, 4, 14, "\n\n"),
		ProfessionalAreaID: areaID,
		CityID:             cityID,
		WorkSchedule:       models.WorkSchedule(f.faker.RandomString(choiceValues(models.WorkSchedules))),
		ExperienceLevel:    models.ExperienceLevel(f.faker.RandomString(choiceValues(models.ExperienceLevels))),
		IsActive:           true,
		CreatedAt:          f.createdAt(),
	}

	from := uint(f.faker.Number(30, 120) * 1000)
	switch f.faker.Number(1, 4) {
	case 1, 2:
		to := from + uint(f.faker.Number(10, 60)*1000)
		v.SalaryFrom, v.SalaryTo = &from, &to
	case 3:
		v.SalaryFrom = &from
	}
	return v
}

// CreateVacancy stores a fake vacancy.
func (f *Factory) CreateVacancy(cityID, areaID uint, overrides ...func(*models.Vacancy)) (*models.Vacancy, error) {
	v := f.BuildVacancy(cityID, areaID)
	for _, o := range overrides {
		o(v)
	}
	if err := f.persist(v, func(id uint) { v.ID = id }); err != nil {
		return nil, fmt.Errorf("create vacancy %q: %w", v.Title, err)
	}
	return v, nil
}

func choiceValues(choices []models.Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Value
	}
	return out
}

func nullDecimal(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(2))
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
