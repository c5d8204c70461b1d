// Package docs provides Swagger API documentation for the portfolio analytics service
package docs

// @title Portfolio Analytics API
// @version 1.0
// @description Values portfolio holdings against current stock prices and serves aggregate analytics: totals, sector allocation, top holdings and risk scores.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @tag.name analytics
// @tag.description Portfolio valuation and analytics

// @tag.name portfolios
// @tag.description Portfolio management

// @tag.name holdings
// @tag.description Holdings within a portfolio

// @tag.name stocks
// @tag.description Stock catalog lookups for adding holdings

// @tag.name health
// @tag.description Liveness, readiness and build info
