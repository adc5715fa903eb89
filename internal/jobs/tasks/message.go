package tasks

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const defaultCountryCode = "91"

func OrderConfirmationMessage(p OrderPlacedPayload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Order %s confirmed*\n", p.OrderNumber)
	if p.StoreName != "" {
		fmt.Fprintf(&b, "Store: %s\n", p.StoreName)
	}
	b.WriteString("\n")

	for _, item := range p.Items {
		fmt.Fprintf(&b, "• %s", item.Name)
		if variant := variantLabel(item); variant != "" {
			fmt.Fprintf(&b, " (%s)", variant)
		}
		fmt.Fprintf(&b, " x %d - ₹%.2f\n", item.Quantity, item.Total)
	}

	fmt.Fprintf(&b, "\nSubtotal: ₹%.2f\n", p.Subtotal)
	if p.Discount > 0 {
		fmt.Fprintf(&b, "Discount: -₹%.2f\n", p.Discount)
	}
	fmt.Fprintf(&b, "*Total Amount:* ₹%.2f\n", p.Total)

	if p.DeliveryType == "pickup" {
		b.WriteString("Pickup from store\n")
	} else if p.DeliveryAddress != "" {
		fmt.Fprintf(&b, "*Delivery Address:* %s\n", p.DeliveryAddress)
	}

	b.WriteString("\nThank you for ordering with us!")
	return b.String()
}

func StatusUpdateMessage(p OrderStatusPayload) string {
	return fmt.Sprintf("Your order %s is now *%s*.", p.OrderNumber, p.Status)
}

func variantLabel(item OrderLine) string {
	parts := make([]string, 0, 2)
	if item.Weight != "" {
		parts = append(parts, item.Weight)
	}
	if item.Flavor != "" {
		parts = append(parts, item.Flavor)
	}
	return strings.Join(parts, ", ")
}

// WhatsAppLink builds a wa.me share link. Ten-digit local numbers get the
// default country code; anything without enough digits yields no link.
func WhatsAppLink(phone, message string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	if len(digits) == 10 {
		digits = defaultCountryCode + digits
	}
	if len(digits) < 11 {
		return "", false
	}

	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(message)), true
}
