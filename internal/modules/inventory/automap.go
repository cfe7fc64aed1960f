package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Proposal suggests linking a new inventory item to a menu item by name.
type Proposal struct {
	MenuItemName string
	Quantity     decimal.Decimal
	Unit         string
}

// Matcher proposes ingredient mappings for a newly created inventory item.
type Matcher interface {
	Propose(itemName string) []Proposal
}

// KeywordRule fires when Keyword occurs anywhere in the lower-cased item name.
type KeywordRule struct {
	Keyword   string
	Proposals []Proposal
}

// KeywordMatcher is a substring matcher over a fixed rule table. It is a
// heuristic: "chicken stock cubes" matches the chicken rule just like
// "whole chicken" does.
type KeywordMatcher struct {
	rules []KeywordRule
}

func NewKeywordMatcher(rules []KeywordRule) *KeywordMatcher {
	return &KeywordMatcher{rules: rules}
}

func (m *KeywordMatcher) Propose(itemName string) []Proposal {
	name := strings.ToLower(itemName)
	var out []Proposal
	for _, rule := range m.rules {
		if strings.Contains(name, rule.Keyword) {
			out = append(out, rule.Proposals...)
		}
	}
	return out
}

func proposal(menuItem, qty, unit string) Proposal {
	return Proposal{MenuItemName: menuItem, Quantity: decimal.RequireFromString(qty), Unit: unit}
}

// DefaultKeywordRules is the starter table shipped with the service.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{Keyword: "chicken", Proposals: []Proposal{
			proposal("Chicken Meal", "1", "piece"),
			proposal("Chicken Burger", "1", "piece"),
			proposal("Chicken Wings", "6", "piece"),
		}},
		{Keyword: "potato", Proposals: []Proposal{
			proposal("French Fries", "0.25", "kg"),
			proposal("Chicken Meal", "0.2", "kg"),
		}},
		{Keyword: "beef", Proposals: []Proposal{
			proposal("Beef Burger", "0.15", "kg"),
			proposal("Beef Stew", "0.25", "kg"),
		}},
		{Keyword: "rice", Proposals: []Proposal{
			proposal("Rice Plate", "0.2", "kg"),
			proposal("Beef Stew", "0.15", "kg"),
		}},
		{Keyword: "tomato", Proposals: []Proposal{
			proposal("Garden Salad", "0.1", "kg"),
			proposal("Beef Burger", "0.03", "kg"),
		}},
		{Keyword: "cheese", Proposals: []Proposal{
			proposal("Beef Burger", "0.03", "kg"),
			proposal("Chicken Burger", "0.03", "kg"),
		}},
		{Keyword: "bread", Proposals: []Proposal{
			proposal("Beef Burger", "1", "piece"),
			proposal("Chicken Burger", "1", "piece"),
		}},
		{Keyword: "lettuce", Proposals: []Proposal{
			proposal("Garden Salad", "0.15", "kg"),
			proposal("Chicken Burger", "0.02", "kg"),
		}},
		{Keyword: "onion", Proposals: []Proposal{
			proposal("Beef Stew", "0.05", "kg"),
			proposal("Garden Salad", "0.03", "kg"),
		}},
		{Keyword: "oil", Proposals: []Proposal{
			proposal("French Fries", "0.05", "litre"),
			proposal("Chicken Meal", "0.05", "litre"),
		}},
	}
}

// MenuLookup resolves a menu item by its exact name. ok is false when no item matches.
type MenuLookup interface {
	MenuItemIDByName(ctx context.Context, name string) (id uuid.UUID, ok bool, err error)
}

// AutoLinker turns matcher proposals into ingredient mappings after an item is created.
type AutoLinker struct {
	matcher Matcher
	menu    MenuLookup
	recipes RecipeRepository
	log     *zap.Logger
	now     func() time.Time
}

func NewAutoLinker(matcher Matcher, menu MenuLookup, recipes RecipeRepository, log *zap.Logger) *AutoLinker {
	return &AutoLinker{matcher: matcher, menu: menu, recipes: recipes, log: log, now: time.Now}
}

// Link never fails the caller. Unknown menu items and pairs that are already
// mapped are skipped; storage errors are logged.
func (a *AutoLinker) Link(ctx context.Context, item *Item) []*Ingredient {
	var created []*Ingredient
	for _, prop := range a.matcher.Propose(item.Name) {
		menuID, ok, err := a.menu.MenuItemIDByName(ctx, prop.MenuItemName)
		if err != nil {
			a.log.Warn("autolink: menu lookup failed", zap.String("menu_item", prop.MenuItemName), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		existing, err := a.recipes.FindActiveIngredient(ctx, menuID, item.ID)
		if err != nil {
			a.log.Warn("autolink: mapping lookup failed", zap.String("menu_item", prop.MenuItemName), zap.Error(err))
			continue
		}
		if existing != nil {
			continue
		}
		now := a.now().UTC()
		ing := &Ingredient{
			ID:                uuid.New(),
			MenuItemID:        menuID,
			InventoryItemID:   item.ID,
			QuantityUsed:      prop.Quantity,
			UnitOfMeasure:     prop.Unit,
			IsActive:          true,
			CreatedAt:         now,
			UpdatedAt:         now,
			InventoryItemName: item.Name,
		}
		if err := a.recipes.CreateIngredient(ctx, ing); err != nil {
			a.log.Warn("autolink: create mapping failed",
				zap.String("menu_item", prop.MenuItemName),
				zap.String("inventory_item", item.Name),
				zap.Error(err))
			continue
		}
		a.log.Info("autolink: ingredient mapped",
			zap.String("menu_item", prop.MenuItemName),
			zap.String("inventory_item", item.Name),
			zap.String("quantity", prop.Quantity.String()))
		created = append(created, ing)
	}
	return created
}
