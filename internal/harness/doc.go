// Package harness evaluates counterfactual-explanation algorithms against
// ontology-backed test cases.
//
// The harness loads a batch of test case specifications, materializes each
// test case as a synthetic individual inside a shared knowledge base, hands
// it to an algorithm adapter, and feeds the resulting explanations to a list
// of analyzers.
//
// # Batch Format
//
// Batches are YAML (or JSON) files with the following structure:
//
//	ontology: pizza.cue
//	examples:
//	  - key: 1
//	    description: "Margherita without cheese"
//	    desiredClass: http://example.org/pizza#VegetarianPizza
//	    assertions:
//	      - property: http://example.org/pizza#hasTopping
//	        value: [http://example.org/pizza#MeatTopping]
//	    expectedOutcomes:
//	      - modifications:
//	          - type: remove
//	            property: http://example.org/pizza#hasTopping
//	          - type: insert
//	            property: http://example.org/pizza#hasTopping
//	            new_value: [http://example.org/pizza#CheeseTopping]
//
// The ontology path is relative to the batch file. desiredClass and every
// assertion value accept a single IRI or a list of IRIs; an assertion value
// is the type signature of the individual the property points at.
//
// # Materialization
//
// A test case owns its synthetic individual and every auxiliary individual
// created to satisfy an assertion. Destroy retracts all of them and may be
// called any number of times. With wraps materialize/use/destroy as one
// scoped acquisition.
//
// # Sequential Processing
//
// The knowledge base is a single shared mutable store. Test cases are
// materialized, run and destroyed strictly one at a time, both by
// Registry.VerifyConsistency and by Program.Run.
//
// # Usage
//
//	batch, err := harness.LoadBatch("examples/pizza.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg := harness.NewRegistry(knowledgeBase, logger)
//	if _, err := reg.LoadBatch(batch); err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := harness.NewProgram(adapter, analyzers, harness.WithLogger(logger))
//	outcome, err := prog.Run(ctx, reg)
package harness
