// Package resolver assigns canonical identifiers to annotation documents.
//
// Resolution runs three steps over a private copy of the input document:
//
//  1. Provenance: the first paragraph identifier tells where the document
//     came from and yields the document identifier.
//     nil                 → raw annotation-tool output, AnNER-RDF_<yyMMddHHmmss>
//     "AnNER…"            → structured annotation-tool output, first 22 characters
//     anything else       → RDF-to-JSON converter output, all but the last 2 characters
//  2. Review version: when the document is already identified and some
//     entities still lack an identifier, new entity identifiers get an _Rv<N>
//     suffix one higher than any suffix already present.
//  3. Assignment: missing paragraph identifiers become <doc>_p<n> and missing
//     entity identifiers become <paragraph>_e<m>[_Rv<N>]. Existing identifiers
//     are never replaced, so resolving a resolved document changes nothing.
//
// # Usage
//
//	r := resolver.New(resolver.WithClock(resolver.NewMonotonicClock(resolver.SystemClock{})))
//	res, err := r.Resolve(doc)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.DocumentID, res.ReviewVersion)
package resolver
