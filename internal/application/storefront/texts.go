package storefront

// Texts are the user-facing strings of the storefront
type Texts struct {
	Welcome                 string
	MainMenu                string
	Categories              string
	Cart                    string
	CartWithCount           string // %d distinct lines
	Orders                  string
	Account                 string
	Recommendations         string
	BackToMainMenu          string
	BackToCategories        string
	ChooseCategory          string
	ProductsInCategory      string // %s category name
	NoProductsInCategory    string
	SearchInCategory        string
	Previous                string
	Next                    string
	WriteQuery              string
	NoProductFound          string
	SearchResults           string
	ProductDoesNotExist     string // %d product id
	CategoryDoesNotExist    string // %d category id
	AddToCart               string
	ChooseVariant           string
	OutOfStock              string
	InStock                 string // %d units
	Price                   string
	ProductAdded            string // %d id, %s name
	VariantRequired         string
	Remove                  string
	CartEmpty               string
	ItemRemoved             string
	ItemNotFound            string
	Checkout                string
	NothingToCheckout       string
	CheckoutSummary         string
	ProceedToPayment        string
	PayNow                  string
	PriceMismatch           string
	InvoiceExpired          string
	PaymentSuccessful       string
	OrderNotRecorded        string
	NoOrders                string
	YourOrders              string
	RecommendationPrompt    string
	RecommendationsHeader   string
	NoRecommendations       string
	RecommendationsDisabled string
	NoImages                string
	UnknownCommand          string
	UnknownAction           string
	GenericError            string
}

// DefaultTexts returns the English texts
func DefaultTexts() Texts {
	return Texts{
		Welcome:                 "Welcome to ecommerce bot",
		MainMenu:                "Main Menu",
		Categories:              "Categories",
		Cart:                    "Cart",
		CartWithCount:           "Cart (%d)",
		Orders:                  "Orders",
		Account:                 "Account",
		Recommendations:         "Product recommendations",
		BackToMainMenu:          "Back to Main Menu",
		BackToCategories:        "Back to categories",
		ChooseCategory:          "Choose a category:",
		ProductsInCategory:      "Products in category %s:",
		NoProductsInCategory:    "No products found in this category.",
		SearchInCategory:        "Search products in this category",
		Previous:                "Previous",
		Next:                    "Next",
		WriteQuery:              "Write here your query:",
		NoProductFound:          "No product found",
		SearchResults:           "Search results:",
		ProductDoesNotExist:     "Product does not exist: #%d",
		CategoryDoesNotExist:    "Category does not exist: #%d",
		AddToCart:               "Add to cart",
		ChooseVariant:           "Choose a variant:",
		OutOfStock:              "Out of stock",
		InStock:                 "In stock: %d",
		Price:                   "Price",
		ProductAdded:            "Product added to cart: #%d %s",
		VariantRequired:         "Please choose a variant of this product first.",
		Remove:                  "Remove",
		CartEmpty:               "Your cart is empty.",
		ItemRemoved:             "Item removed from cart.",
		ItemNotFound:            "Item not found in cart.",
		Checkout:                "Checkout",
		NothingToCheckout:       "Your cart is empty. Nothing to checkout.",
		CheckoutSummary:         "Checkout Summary:",
		ProceedToPayment:        "Proceed to payment?",
		PayNow:                  "Pay Now",
		PriceMismatch:           "Price mismatch",
		InvoiceExpired:          "Your cart changed. Please check out again.",
		PaymentSuccessful:       "Payment successful! Thank you for your purchase.",
		OrderNotRecorded:        "Your payment was received but the order could not be recorded. Please contact support.",
		NoOrders:                "You have no orders yet.",
		YourOrders:              "Your Orders:",
		RecommendationPrompt:    "Please tell me what you are looking for, and I will recommend some products:",
		RecommendationsHeader:   "Here there are some recommendations:",
		NoRecommendations:       "Sorry, I couldn't find any recommendations.",
		RecommendationsDisabled: "Product recommendations are not available.",
		NoImages:                "This product has no images.",
		UnknownCommand:          "Unknown command.",
		UnknownAction:           "Sorry, I didn't understand that action.",
		GenericError:            "Something went wrong. Please try again.",
	}
}
