// Package models defines the core domain models for amencash.
//
// # Models
//
//   - User: Registered account. Credentials belong to the auth package.
//   - Group: Ordered member list; the creator is always the first member.
//   - Expense: Money fronted by one member and owed by a subset of members.
//   - Payment: One member's recorded share payment against an expense.
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships are expressed as ID strings
// 2. **Fixed-point money**: amounts are decimal.Decimal rounded to cents
// 3. **Derived balances**: nothing in this package stores a balance; balances
// are always recomputed from pending expenses by the calculator package
package models
