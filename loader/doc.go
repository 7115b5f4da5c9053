// Package loader discovers and reads knowledge-base text files.
//
// Each file becomes a core.Document whose Category is the name of the
// directory that holds it, so a tree such as
//
//	knowledge_base/
//	  products/iphone17.txt
//	  policies/returns.txt
//
// yields documents in the "products" and "policies" categories.
package loader
