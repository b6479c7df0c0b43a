// Package gen builds the code model of a content type graph and writes it
// as Go source.
//
// # Pipeline
//
//	load.Graph + custom.Options
//	        ↓
//	   Build (code model: Graph, Type, Property)
//	        ↓
//	   Writer (one unit per model, plus the infos unit)
//
// # Generated code
//
// Every content type becomes a struct embedding its parent model, or the
// configured root (modelsbuilder.Model by default), and a constructor:
//
//	type Product struct {
//		Page
//	}
//
//	func NewProduct(element modelsbuilder.Element) *Product
//
// A content type composed by others also gets an interface, and composing
// models assert they implement it:
//
//	type SeoComposition interface {
//		modelsbuilder.Modeled
//		MetaDescription() string
//	}
//
//	var _ SeoComposition = (*Product)(nil)
//
// Each property becomes an accessor calling modelsbuilder.Value. The member
// style adds package functions or lookup parameters.
//
// # Customization
//
// Hand-written files of the generated package take over declarations. A
// struct with the model name replaces the generated struct, a constructor
// replaces the generated one, and //models: directives rename or ignore
// content types and properties. See package parse.
package gen
