package openapi

import "strconv"

// validateExamples checks the examples of a response against its schema and
// reports mismatches as diagnostics. It never fails the build.
func (b *Builder) validateExamples(site operationSite, status int, def *ResponseDef) {
	if b.cfg.SkipExampleValidation || def.Schema == nil {
		return
	}

	if def.Example != nil {
		if errs := b.validator.Validate(def.Schema, def.Example); len(errs) > 0 {
			d := warnf(DiagnosticExampleMismatch,
				"example for response %d of operation %s does not match its schema", status, site.operationID)
			b.reportExample(d, site, status, "", errs)
		}
	}

	for _, name := range sortedKeys(def.Examples) {
		if errs := b.validator.Validate(def.Schema, def.Examples[name].Value); len(errs) > 0 {
			d := warnf(DiagnosticExampleMismatch,
				"example %q for response %d of operation %s does not match its schema", name, status, site.operationID)
			b.reportExample(d, site, status, name, errs)
		}
	}
}

func (b *Builder) reportExample(d Diagnostic, site operationSite, status int, name string, errs []ErrorDetail) {
	d.OperationID = site.operationID
	d.Method = site.method
	d.Path = site.path
	d.Status = strconv.Itoa(status)
	d.Example = name
	d.Errors = errs
	b.sink.Report(d)
}
