package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Writes that must only happen inside an aggregate transaction. Product
// creation and partial updates stay on the repo; deletion does not.
var guardedRepoWrites = map[string]map[string]bool{
	"OrderRepo":     {"Create": true, "UpdateFields": true, "LockByID": true},
	"OrderItemRepo": {"Create": true},
	"ProductRepo":   {"Delete": true},
	"CartItemRepo":  {"DeleteByProductID": true},
}

var aggregateWriteMethods = map[string]bool{
	"PlaceOrder":         true,
	"TransitionStatus":   true,
	"DeleteOrDeactivate": true,
}

type methodStats struct {
	StructName      string   `json:"struct_name"`
	Method          string   `json:"method"`
	File            string   `json:"file"`
	Line            int      `json:"line"`
	GuardedWrites   []string `json:"guarded_writes,omitempty"`
	AggregateWrites []string `json:"aggregate_writes,omitempty"`
}

type auditReport struct {
	GuardedWriteCallsites   int           `json:"guarded_write_callsites"`
	AggregateWriteCallsites int           `json:"aggregate_write_callsites"`
	Violations              []methodStats `json:"violations"`
	AggregateAdopters       []methodStats `json:"aggregate_adopters"`
}

type structFields struct {
	Repos      map[string]string
	Aggregates map[string]string
}

func main() {
	strict := flag.Bool("strict", false, "exit non-zero when a service writes a guarded repo directly")
	flag.Parse()
	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	servicesDir := filepath.Join(root, "internal", "services")
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, servicesDir, func(fi os.FileInfo) bool {
		name := fi.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}, 0)
	if err != nil {
		exitf("parse dir: %v", err)
	}
	pkg, ok := pkgs["services"]
	if !ok {
		exitf("services package not found in %s", servicesDir)
	}

	fields := map[string]structFields{}
	for _, f := range pkg.Files {
		collectStructFields(f, fields)
	}
	var methods []methodStats
	for path, f := range pkg.Files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		methods = append(methods, collectMethodStats(fset, f, filepath.ToSlash(rel), fields)...)
	}

	report := buildReport(methods)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
	if *strict && len(report.Violations) > 0 {
		os.Exit(2)
	}
}

func collectStructFields(file *ast.File, out map[string]structFields) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || st.Fields == nil {
				continue
			}
			sf := structFields{Repos: map[string]string{}, Aggregates: map[string]string{}}
			for _, field := range st.Fields.List {
				sel, ok := field.Type.(*ast.SelectorExpr)
				if !ok || len(field.Names) == 0 {
					continue
				}
				pkgIdent, ok := sel.X.(*ast.Ident)
				if !ok {
					continue
				}
				for _, name := range field.Names {
					switch {
					case pkgIdent.Name == "repos" && strings.HasSuffix(sel.Sel.Name, "Repo"):
						sf.Repos[name.Name] = sel.Sel.Name
					case pkgIdent.Name == "domainagg" && strings.HasSuffix(sel.Sel.Name, "Aggregate"):
						sf.Aggregates[name.Name] = sel.Sel.Name
					}
				}
			}
			if len(sf.Repos) > 0 || len(sf.Aggregates) > 0 {
				out[ts.Name.Name] = sf
			}
		}
	}
}

func collectMethodStats(fset *token.FileSet, file *ast.File, relFile string, fields map[string]structFields) []methodStats {
	var out []methodStats
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvName, recvType := recvInfo(fd.Recv.List[0])
		sf, ok := fields[recvType]
		if !ok || recvName == "" {
			continue
		}

		guarded := map[string]bool{}
		aggs := map[string]bool{}
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fnSel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			rcvSel, ok := fnSel.X.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			base, ok := rcvSel.X.(*ast.Ident)
			if !ok || base.Name != recvName {
				return true
			}
			field, method := rcvSel.Sel.Name, fnSel.Sel.Name
			if repoType, ok := sf.Repos[field]; ok && guardedRepoWrites[repoType][method] {
				guarded[repoType+"."+method] = true
			}
			if _, ok := sf.Aggregates[field]; ok && aggregateWriteMethods[method] {
				aggs[method] = true
			}
			return true
		})
		if len(guarded) == 0 && len(aggs) == 0 {
			continue
		}
		out = append(out, methodStats{
			StructName:      recvType,
			Method:          fd.Name.Name,
			File:            relFile,
			Line:            fset.Position(fd.Pos()).Line,
			GuardedWrites:   sortedKeys(guarded),
			AggregateWrites: sortedKeys(aggs),
		})
	}
	return out
}

func buildReport(methods []methodStats) auditReport {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})
	report := auditReport{Violations: []methodStats{}, AggregateAdopters: []methodStats{}}
	for _, m := range methods {
		if len(m.GuardedWrites) > 0 {
			report.GuardedWriteCallsites += len(m.GuardedWrites)
			report.Violations = append(report.Violations, m)
		}
		if len(m.AggregateWrites) > 0 {
			report.AggregateWriteCallsites += len(m.AggregateWrites)
			report.AggregateAdopters = append(report.AggregateAdopters, m)
		}
	}
	return report
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	recvName := field.Names[0].Name
	switch t := field.Type.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return recvName, id.Name
		}
	case *ast.Ident:
		return recvName, t.Name
	}
	return "", ""
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
