// Package service contains the application's business workflows, composed
// from the domain entities and store interfaces. Services own transaction
// boundaries and cross-entity rules such as awarding points on completion;
// handlers stay thin and stores stay mechanical.
package service
