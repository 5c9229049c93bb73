package insights

import (
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

const systemPrompt = "You are a business analyst for a small Indian shopkeeper."

// BuildPrompt renders the sales and credit lists into the analysis request.
func BuildPrompt(list []sales.Sale, entries []credit.Entry, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("Analyze the following sales and credit (udhar) data. ")
	b.WriteString("Provide actionable insights and a summary in simple, easy-to-understand language ")
	b.WriteString("(Hindi/Hinglish mixed with English terms is okay).\n\n")
	b.WriteString("Structure the analysis with these markdown sections:\n")
	b.WriteString("1. **Overall Summary:** a brief overview of sales, profitability, and credit health.\n")
	b.WriteString("2. **Sales & Profit Insights:** top-selling items, most profitable sales, popular payment methods, and sales trends.\n")
	b.WriteString("3. **Credit (Udhar) Analysis:** the total outstanding credit and the ratio of paid vs. unpaid credits.\n")
	b.WriteString("4. **Recommendations:** 2-3 practical steps to increase profits or manage credit better.\n\n")

	b.WriteString("**Sales Data:**\n")
	if len(list) == 0 {
		b.WriteString("No sales data available.\n")
	}
	for _, s := range list {
		fmt.Fprintf(&b, "- Sale: %s (%d units) for %s (Profit: %s) via %s on %s\n",
			s.ItemName, s.Qty, shared.FormatRupees(s.TotalAmount), shared.FormatRupees(s.Profit),
			s.PaymentType, s.OccurredAt.In(loc).Format("02/01/2006"))
	}

	b.WriteString("\n**Credit (Udhar) Data:**\n")
	if len(entries) == 0 {
		b.WriteString("No credit data available.\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "- Credit: %s given, status: %s, due on %s\n",
			shared.FormatRupees(e.Amount), e.Status, e.DueDate.Format("02/01/2006"))
	}

	b.WriteString("\nBe concise and focus on what matters most to a small business owner.")
	return b.String()
}
