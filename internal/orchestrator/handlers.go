package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lewisedginton/shopping_assistant/internal/catalog"
	"github.com/lewisedginton/shopping_assistant/internal/generation"
	"github.com/lewisedginton/shopping_assistant/internal/intent"
	"github.com/lewisedginton/shopping_assistant/internal/issues"
	"github.com/lewisedginton/shopping_assistant/internal/memory_service"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

// Generation settings per handler. Factual lookups run cold, conversational
// replies warmer.
const (
	searchTemperature   = 0.7
	specificTemperature = 0.3
	browseTemperature   = 0.7
	issueTemperature    = 0.6
	chatTemperature     = 0.8

	replyMaxTokens    = 120
	specificMaxTokens = 100
)

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func productNames(products []catalog.Product, limit int) string {
	if len(products) > limit {
		products = products[:limit]
	}
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func (s *Service) generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, bool) {
	out, err := s.cfg.Chain.Generate(ctx, generation.UserMessage(prompt), temperature, maxTokens)
	if err != nil {
		s.log.Warn("Response generation failed", logger.ErrorField(err))
		return "", false
	}
	return StripMarkdown(out), true
}

func (s *Service) knownCategories(ctx context.Context) []string {
	categories, err := s.cfg.Catalog.Categories(ctx)
	if err != nil {
		s.log.Warn("Failed to list categories", logger.ErrorField(err))
		return nil
	}
	return categories
}

func (s *Service) handleProductSearch(ctx context.Context, message string) (*Reply, memory_service.Record) {
	category, _ := s.cfg.Extractor.Category(message, s.knownCategories(ctx))

	products, err := s.cfg.Catalog.Search(ctx, message, s.cfg.SearchK, category)
	if err != nil {
		s.log.Error("Product search failed", logger.ErrorField(err))
		return &Reply{
			Response: "I'm sorry, I encountered an error while searching for products. Please try again.",
			Intent:   string(intent.ProductSearch),
		}, memory_service.Record{}
	}
	if len(products) == 0 {
		return &Reply{
			Response: "I couldn't find any products matching your query. Could you please be more specific or try different keywords?",
			Intent:   string(intent.ProductSearch),
		}, memory_service.Record{}
	}

	var productsText, productLinks strings.Builder
	for i, p := range products {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&productsText, "%d. %s - $%s\n   Category: %s\n   %s\n\n",
			i+1, p.Name, formatPrice(p.Price), p.Category, truncate(p.Description, 100))
		fmt.Fprintf(&productLinks, "🔗 %s\n", s.productLink(p.ID))
	}

	prompt := fmt.Sprintf(`Based on the user's search query: "%s"

Here are the top matching products:
%s
Provide a helpful, conversational response that:
1. Acknowledges their search
2. Briefly mentions the products found
3. Offers to provide more details if needed
4. Keep it under 150 words

Response:`, message, productsText.String())

	response, ok := s.generate(ctx, prompt, searchTemperature, replyMaxTokens)
	if !ok {
		return &Reply{
			Response: "I'm sorry, I encountered an error while searching for products. Please try again.",
			Intent:   string(intent.ProductSearch),
		}, memory_service.Record{}
	}
	response += "\n\nProduct Links:\n" + productLinks.String()

	record := memory_service.Record{
		UserText: fmt.Sprintf("User searched for: %s", message),
		BotText: fmt.Sprintf("Found %d products matching '%s'. Top results: %s",
			len(products), message, productNames(products, 3)),
	}
	return &Reply{
		Response: response,
		Intent:   string(intent.ProductSearch),
		Products: products,
		Category: category,
	}, record
}

func (s *Service) handleProductSpecific(ctx context.Context, message, memoryContext string) (*Reply, memory_service.Record) {
	apology := &Reply{
		Response: "I'm sorry, I couldn't retrieve the product details right now. Please try again.",
		Intent:   string(intent.ProductSpecific),
	}

	var product *catalog.Product
	if id, ok := s.cfg.Extractor.ProductID(message); ok {
		found, err := s.cfg.Catalog.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return &Reply{
					Response: fmt.Sprintf("I couldn't find product with ID %d. Please check the product ID or try searching by name.", id),
					Intent:   string(intent.ProductSpecific),
				}, memory_service.Record{}
			}
			s.log.Error("Product lookup failed", logger.ErrorField(err))
			return apology, memory_service.Record{}
		}
		product = found
	} else {
		query := message
		name, named := s.cfg.Extractor.ProductName(ctx, message, memoryContext)
		if named {
			query = name
		}
		candidates, err := s.cfg.Catalog.Search(ctx, query, s.cfg.SearchK, "")
		if err != nil {
			s.log.Error("Product search failed", logger.ErrorField(err))
			return apology, memory_service.Record{}
		}
		if named {
			candidates = catalog.RankByKeywords(candidates, name)
		}
		if len(candidates) == 0 {
			return &Reply{
				Response: "I couldn't find that specific product. Could you provide more details or check the product name/ID?",
				Intent:   string(intent.ProductSpecific),
			}, memory_service.Record{}
		}
		product = &candidates[0]
	}

	prompt := fmt.Sprintf(`User is asking about this specific product: "%s"

Product Details:
- ID: %d
- Name: %s
- Price: $%s
- Category: %s
- Description: %s

Provide a concise, structured response that includes:
1. Product name and ID
2. Price and category
3. Brief description (2-3 sentences max)
4. Keep it under 100 words and professional

Response:`, message, product.ID, product.Name, formatPrice(product.Price), product.Category, product.Description)

	response, ok := s.generate(ctx, prompt, specificTemperature, specificMaxTokens)
	if !ok {
		return apology, memory_service.Record{}
	}
	response += "\n\nProduct Link:\n" + s.productLink(product.ID)

	record := memory_service.Record{
		UserText: fmt.Sprintf("User asked about product ID %d: %s", product.ID, message),
		BotText: fmt.Sprintf("Showed product ID %d: %s - $%s in %s category",
			product.ID, product.Name, formatPrice(product.Price), product.Category),
	}
	return &Reply{
		Response: response,
		Intent:   string(intent.ProductSpecific),
		Products: []catalog.Product{*product},
	}, record
}

func (s *Service) handleCategoryBrowse(ctx context.Context, message string) (*Reply, memory_service.Record) {
	apology := &Reply{
		Response: "I'm sorry, I couldn't load the category right now. Please try again.",
		Intent:   string(intent.CategoryBrowse),
	}

	categories := s.knownCategories(ctx)
	category, ok := s.cfg.Extractor.Category(message, categories)
	if !ok {
		return &Reply{
			Response: fmt.Sprintf("I can help you browse our categories! We have: %s. Which category interests you?",
				strings.Join(categories, ", ")),
			Intent:     string(intent.CategoryBrowse),
			Categories: categories,
		}, memory_service.Record{}
	}

	products, err := s.cfg.Catalog.ByCategory(ctx, category, s.cfg.SearchK)
	if err != nil {
		s.log.Error("Category browse failed", logger.ErrorField(err))
		return apology, memory_service.Record{}
	}
	if len(products) == 0 {
		return &Reply{
			Response: fmt.Sprintf("I couldn't find any products in the %s category right now. Please try another category.", category),
			Intent:   string(intent.CategoryBrowse),
			Category: category,
		}, memory_service.Record{}
	}

	var featured, productLinks strings.Builder
	for i, p := range products {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&featured, "- %s ($%s)\n", p.Name, formatPrice(p.Price))
		fmt.Fprintf(&productLinks, "🔗 %s\n", s.productLink(p.ID))
	}

	prompt := fmt.Sprintf(`User wants to browse products in the "%s" category.

Found %d products in this category. Here are the top ones:
%s
Provide an engaging response that:
1. Welcomes them to the category
2. Mentions the variety available
3. Encourages them to explore
Keep it under 150 words.

Response:`, category, len(products), featured.String())

	response, ok := s.generate(ctx, prompt, browseTemperature, replyMaxTokens)
	if !ok {
		return apology, memory_service.Record{}
	}
	response += "\n\nFeatured Products:\n" + productLinks.String()

	record := memory_service.Record{
		UserText: fmt.Sprintf("User browsed %s category", category),
		BotText: fmt.Sprintf("Showed %d products from %s category. Featured: %s",
			len(products), category, productNames(products, 3)),
	}
	return &Reply{
		Response: response,
		Intent:   string(intent.CategoryBrowse),
		Products: products,
		Category: category,
	}, record
}

func (s *Service) handlePriceRangeSearch(ctx context.Context, message string) (*Reply, memory_service.Record) {
	category, _ := s.cfg.Extractor.Category(message, s.knownCategories(ctx))

	priceRange := s.cfg.Extractor.PriceRange(ctx, message, category)
	if priceRange == nil {
		return &Reply{
			Response: "I couldn't understand the price range you're looking for. Could you please specify it more clearly? For example: 'products under $50' or 'between $20 to $100'",
			Intent:   string(intent.PriceRangeSearch),
		}, memory_service.Record{}
	}

	priceText := fmt.Sprintf("under $%s", formatPrice(priceRange.Max))
	if priceRange.Min > 0 {
		priceText = fmt.Sprintf("$%s-$%s", formatPrice(priceRange.Min), formatPrice(priceRange.Max))
	}
	categoryText := ""
	if category != "" {
		categoryText = " in " + category
	}

	products, err := s.cfg.Catalog.SearchByPrice(ctx, priceRange.Min, priceRange.Max, category, s.cfg.PriceSearchK)
	if err != nil {
		s.log.Error("Price range search failed", logger.ErrorField(err))
		return &Reply{
			Response: "I'm sorry, I encountered an error while searching for products in your price range. Please try again.",
			Intent:   string(intent.PriceRangeSearch),
		}, memory_service.Record{}
	}
	if len(products) == 0 {
		return &Reply{
			Response: fmt.Sprintf("I couldn't find any products %s%s. Would you like to try a different price range or browse our other products?",
				priceText, categoryText),
			Intent:     string(intent.PriceRangeSearch),
			PriceRange: priceRange,
			Category:   category,
		}, memory_service.Record{}
	}

	var productsText, productLinks strings.Builder
	for i, p := range products {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&productsText, "%d. %s - $%s\n   Category: %s\n   %s\n\n",
			i+1, p.Name, formatPrice(p.Price), p.Category, truncate(p.Description, 80))
		fmt.Fprintf(&productLinks, "🔗 %s\n", s.productLink(p.ID))
	}

	prompt := fmt.Sprintf(`User is looking for products in price range %s%s.

Found %d products matching their criteria:
%s
Provide a helpful response that:
1. Confirms their price range search
2. Mentions the number of products found
3. Highlights a few top options
4. Encourages them to check the links
Keep it under 150 words and conversational.

Response:`, priceText, categoryText, len(products), productsText.String())

	response, ok := s.generate(ctx, prompt, searchTemperature, replyMaxTokens)
	if !ok {
		return &Reply{
			Response: "I'm sorry, I encountered an error while searching for products in your price range. Please try again.",
			Intent:   string(intent.PriceRangeSearch),
		}, memory_service.Record{}
	}
	response += "\n\nProduct Links:\n" + productLinks.String()

	shown := products
	if len(shown) > 5 {
		shown = shown[:5]
	}
	record := memory_service.Record{
		UserText: fmt.Sprintf("User searched for products in price range %s%s", priceText, categoryText),
		BotText: fmt.Sprintf("Found %d products in price range %s%s. Top results: %s",
			len(products), priceText, categoryText, productNames(products, 3)),
	}
	return &Reply{
		Response:   response,
		Intent:     string(intent.PriceRangeSearch),
		Products:   shown,
		PriceRange: priceRange,
		Category:   category,
	}, record
}

func (s *Service) handleIssueReport(ctx context.Context, message string, req Request) (*Reply, memory_service.Record) {
	username := req.Username
	if username == "" {
		username = "Anonymous"
	}

	issue := &issues.Issue{
		Username: username,
		Email:    req.Email,
		Message:  message,
	}
	createCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.cfg.Issues.Create(createCtx, issue); err != nil {
		s.log.Error("Failed to create issue", logger.ErrorField(err))
		return &Reply{
			Response: "I'm sorry, I couldn't submit your issue right now. Please try again or contact our support team directly.",
			Intent:   string(intent.IssueReport),
		}, memory_service.Record{}
	}

	prompt := fmt.Sprintf(`A user has reported an issue: "%s"

Provide a helpful, empathetic response that:
1. Acknowledges their concern
2. Assures them it will be addressed
3. Provides an issue reference number: %s
4. Offers additional assistance
Keep it professional and caring, under 150 words.

Response:`, message, issue.Reference)

	response, ok := s.generate(ctx, prompt, issueTemperature, replyMaxTokens)
	if !ok {
		// The ticket exists either way; fall back to a canned confirmation.
		response = fmt.Sprintf("Thank you for reporting this. Your issue has been recorded with reference %s and our team will follow up soon. Is there anything else I can help you with?",
			issue.Reference)
	}

	s.log.Info("Created issue",
		logger.StringField("reference", issue.Reference),
		logger.StringField("username", username))

	record := memory_service.Record{
		UserText: fmt.Sprintf("User reported issue: %s", truncate(message, 100)),
		BotText:  fmt.Sprintf("Created issue %s for user %s: %s", issue.Reference, username, truncate(message, 50)),
	}
	return &Reply{
		Response: response,
		Intent:   string(intent.IssueReport),
		IssueID:  issue.ID,
		IssueRef: issue.Reference,
	}, record
}

func (s *Service) handleGeneralChat(ctx context.Context, message, memoryContext string) (*Reply, memory_service.Record) {
	memories := ""
	if memoryContext != "" {
		memories = "Previous context: " + memoryContext
	}

	prompt := fmt.Sprintf(`You are a helpful AI assistant for an e-commerce platform called "Agentic AI Store".

%s

User message: "%s"

Provide a helpful, friendly response. If appropriate, gently guide them toward browsing products or ask how you can help them find what they need.
Keep it conversational and under 150 words.

Response:`, memories, message)

	response, ok := s.generate(ctx, prompt, chatTemperature, replyMaxTokens)
	if !ok {
		return &Reply{
			Response: "Hello! I'm here to help you find products or answer any questions. How can I assist you today?",
			Intent:   string(intent.GeneralChat),
		}, memory_service.Record{}
	}

	record := memory_service.Record{
		UserText: fmt.Sprintf("General chat: %s", message),
		BotText:  fmt.Sprintf("Responded to general conversation: %s", truncate(response, 100)),
	}
	return &Reply{
		Response: response,
		Intent:   string(intent.GeneralChat),
	}, record
}
