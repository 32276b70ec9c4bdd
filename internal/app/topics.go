package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"chameleon/internal/domain"
)

// TopicProvider supplies topic cards for new games and re-rolls
type TopicProvider interface {
	// Topic returns a card whose category is not in exclude, or
	// domain.ErrTopicPoolExhausted when none is left.
	Topic(ctx context.Context, exclude []string) (domain.TopicCard, error)
}

// TopicGenerator builds a topic card around a free-form seed phrase
type TopicGenerator interface {
	Generate(ctx context.Context, seed string) (domain.TopicCard, error)
}

// ErrGeneratorUnavailable is returned for seeded starts when no generator is configured
var ErrGeneratorUnavailable = fmt.Errorf("generated topics are not enabled: %w", domain.ErrValidation)

// TopicPool picks uniformly from a fixed list of topic cards
type TopicPool struct {
	topics []domain.TopicCard
	rng    domain.Rand
	mu     sync.Mutex
}

// NewTopicPool creates a pool over topics, normalizing every card to the grid size.
// A nil rng uses domain.DefaultRand.
func NewTopicPool(topics []domain.TopicCard, rng domain.Rand) *TopicPool {
	if rng == nil {
		rng = domain.DefaultRand
	}
	cards := make([]domain.TopicCard, 0, len(topics))
	for _, t := range topics {
		card := t.Normalize()
		if card.Category == "" {
			continue
		}
		cards = append(cards, card)
	}
	return &TopicPool{topics: cards, rng: rng}
}

// Len returns the number of cards in the pool
func (p *TopicPool) Len() int {
	return len(p.topics)
}

// Topic returns a random card whose category is not excluded
func (p *TopicPool) Topic(ctx context.Context, exclude []string) (domain.TopicCard, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		excluded[strings.ToLower(strings.TrimSpace(c))] = true
	}

	candidates := make([]domain.TopicCard, 0, len(p.topics))
	for _, t := range p.topics {
		if !excluded[strings.ToLower(t.Category)] {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return domain.TopicCard{}, domain.ErrTopicPoolExhausted
	}

	p.mu.Lock()
	pick := candidates[p.rng.IntN(len(candidates))]
	p.mu.Unlock()

	return domain.TopicCard{Category: pick.Category, Words: append([]string(nil), pick.Words...)}, nil
}

// LoadTopicsFile reads topic cards from the "topics" key of a JSON, YAML or
// TOML file.
func LoadTopicsFile(path string) ([]domain.TopicCard, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var topics []domain.TopicCard
	if err := v.UnmarshalKey("topics", &topics); err != nil {
		return nil, fmt.Errorf("parse topics file: %w", err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("topics file %s has no topics", path)
	}
	return topics, nil
}

// DefaultTopics is the built-in topic pool
var DefaultTopics = []domain.TopicCard{
	{
		Category: "British Sitcoms",
		Words: []string{
			"Fawlty Towers", "Only Fools", "Blackadder", "The Inbetweeners",
			"Peep Show", "Father Ted", "Miranda", "Vicar of Dibley",
			"Gavin & Stacey", "Friday Night Dinner", "Benidorm", "The Royle Family",
			"Absolutely Fabulous", "Red Dwarf", "Ghosts", "The Office",
		},
	},
	{
		Category: "Harry Potter Universe",
		Words: []string{
			"Harry Potter", "Dumbledore", "Snape", "Hagrid",
			"Voldemort", "Hermione", "Ron Weasley", "Draco Malfoy",
			"Dobby", "Sirius Black", "Hogwarts", "Quidditch",
			"The Sorting Hat", "Diagon Alley", "Butterbeer", "Golden Snitch",
		},
	},
	{
		Category: "British Bands & Musicians",
		Words: []string{
			"The Beatles", "Queen", "Oasis", "Spice Girls",
			"Adele", "David Bowie", "Elton John", "Ed Sheeran",
			"Coldplay", "Rolling Stones", "Blur", "Amy Winehouse",
			"Pink Floyd", "Arctic Monkeys", "Take That", "One Direction",
		},
	},
	{
		Category: "UK Reality TV",
		Words: []string{
			"Love Island", "Big Brother", "I'm A Celeb", "The Apprentice",
			"Bake Off", "Gogglebox", "Made in Chelsea", "TOWIE",
			"Britain's Got Talent", "The X Factor", "Strictly", "The Traitors",
			"First Dates", "Dinner Date", "Come Dine With Me", "The Chase",
		},
	},
	{
		Category: "Disney Movies",
		Words: []string{
			"The Lion King", "Frozen", "Aladdin", "Toy Story",
			"Beauty & Beast", "Little Mermaid", "Mulan", "Moana",
			"Finding Nemo", "Shrek", "Cinderella", "Snow White",
			"Jungle Book", "Peter Pan", "101 Dalmatians", "Mary Poppins",
		},
	},
	{
		Category: "British Biscuits",
		Words: []string{
			"Digestive", "Hobnob", "Jammie Dodger", "Custard Cream",
			"Bourbon", "Rich Tea", "Penguin", "Party Ring",
			"Shortbread", "Maryland", "Chocolate Club", "Nice",
			"Ginger Nut", "Fig Roll", "Pink Wafer", "Garibaldi",
		},
	},
	{
		Category: "British Chocolate",
		Words: []string{
			"Dairy Milk", "KitKat", "Twirl", "Wispa",
			"Mars Bar", "Snickers", "Crunchie", "Flake",
			"Twix", "Bounty", "Toblerone", "Double Decker",
			"Boost", "Galaxy", "Creme Egg", "Smarties",
		},
	},
	{
		Category: "Condiments & Sauces",
		Words: []string{
			"Tomato Ketchup", "Brown Sauce", "Mayonnaise", "Salad Cream",
			"Marmite", "Branston Pickle", "Piccalilli", "Mint Sauce",
			"Gravy", "Curry Sauce", "Vinegar", "Mustard",
			"Tartare Sauce", "Soy Sauce", "BBQ Sauce", "Sweet Chilli",
		},
	},
	{
		Category: "The Pub",
		Words: []string{
			"Pint of Lager", "Guinness", "Cider", "Gin & Tonic",
			"Packet of Crisps", "Pork Scratchings", "Peanuts", "Sunday Roast",
			"Dartboard", "Pool Table", "Jukebox", "Last Orders",
			"Beer Garden", "The Landlord", "Quiz Night", "Sticky Carpet",
		},
	},
	{
		Category: "UK Fast Food",
		Words: []string{
			"Greggs", "Nando's", "McDonald's", "KFC",
			"Burger King", "Domino's", "Pizza Hut", "Subway",
			"Five Guys", "Wagamama", "Wetherspoons", "The Chippy",
			"Kebab Shop", "Chinese Takeaway", "Indian Takeaway", "Pizza Express",
		},
	},
	{
		Category: "British Puddings",
		Words: []string{
			"Sticky Toffee", "Apple Crumble", "Trifle", "Victoria Sponge",
			"Eton Mess", "Baked Alaska", "Spotted Dick", "Christmas Pudding",
			"Bread & Butter", "Bakewell Tart", "Lemon Drizzle", "Scones",
			"Cheesecake", "Profiteroles", "Colin (Caterpillar)", "Custard",
		},
	},
	{
		Category: "UK Supermarkets",
		Words: []string{
			"Tesco", "Sainsbury's", "Asda", "Waitrose",
			"Morrisons", "Lidl", "Aldi", "Co-op",
			"M&S Food", "Iceland", "Ocado", "Booths",
			"Whole Foods", "Costco", "Spar", "Corner Shop",
		},
	},
	{
		Category: "London Landmarks",
		Words: []string{
			"Big Ben", "Tower Bridge", "London Eye", "The Shard",
			"Buckingham Palace", "The Tube", "Oxford Street", "Trafalgar Sq",
			"Piccadilly Circus", "Hyde Park", "Wembley", "Wimbledon",
			"The Gherkin", "River Thames", "Natural History", "Harrods",
		},
	},
	{
		Category: "UK High Street",
		Words: []string{
			"Primark", "Boots", "WHSmith", "Poundland",
			"Next", "H&M", "Waterstones", "Currys",
			"Argos", "Superdrug", "JD Sports", "Sports Direct",
			"Zara", "Clarks", "TK Maxx", "Charity Shop",
		},
	},
	{
		Category: "School Days",
		Words: []string{
			"Assembly", "Detention", "PE Kit", "Packed Lunch",
			"Homework", "Uniform", "Headteacher", "Break Time",
			"Sports Day", "School Bus", "Exam Hall", "Whiteboard",
			"Register", "Playground", "School Trip", "Tuck Shop",
		},
	},
	{
		Category: "Household Objects",
		Words: []string{
			"Kettle", "Toaster", "Washing Machine", "Microwave",
			"Television", "Sofa", "Duvet", "Pillow",
			"Henry Hoover", "Ironing Board", "Mug", "Teaspoon",
			"Remote Control", "Laptop", "Fridge", "Toilet Roll",
		},
	},
	{
		Category: "Transportation",
		Words: []string{
			"Double Decker", "Black Cab", "Train", "Tube",
			"Tram", "Ferry", "Aeroplane", "Helicopter",
			"Bicycle", "Motorbike", "Scooter", "Skateboard",
			"Van", "Lorry", "Tractor", "Police Car",
		},
	},
	{
		Category: "Animals",
		Words: []string{
			"Lion", "Tiger", "Elephant", "Giraffe",
			"Monkey", "Penguin", "Polar Bear", "Kangaroo",
			"Dog", "Cat", "Rabbit", "Hamster",
			"Cow", "Sheep", "Pig", "Chicken",
		},
	},
	{
		Category: "Occupations",
		Words: []string{
			"Doctor", "Teacher", "Police Officer", "Firefighter",
			"Chef", "Farmer", "Builder", "Plumber",
			"Hairdresser", "Bus Driver", "Pilot", "Astronaut",
			"Dentist", "Vet", "Artist", "Singer",
		},
	},
	{
		Category: "Sports",
		Words: []string{
			"Football", "Rugby", "Tennis", "Cricket",
			"Golf", "Snooker", "Darts", "Boxing",
			"Athletics", "Formula 1", "Swimming", "Cycling",
			"Basketball", "Gymnastics", "Netball", "Badminton",
		},
	},
}
