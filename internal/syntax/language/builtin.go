package language

import (
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/dshills/textcore/internal/syntax/indent"
)

// Builtins returns fresh copies of the built-in languages.
func Builtins() []*Language {
	return []*Language{Go(), HTML(), JavaScript(), CSS()}
}

// Go is the Go language.
func Go() *Language {
	return &Language{
		Name:            "go",
		Aliases:         []string{"golang"},
		Extensions:      []string{".go"},
		Grammar:         golang.GetLanguage(),
		GrammarName:     "go",
		HighlightsQuery: goHighlights,
		Indent: indent.Scopes{
			Indent: []string{
				"block", "literal_value", "field_declaration_list", "interface_type",
				"argument_list", "parameter_list", "import_spec_list",
				"expression_case", "type_case", "default_case", "communication_case",
			},
			Outdent: []string{"}", ")", "]"},
		},
	}
}

// HTML is HTML with JavaScript and CSS injected into script and style
// elements.
func HTML() *Language {
	return &Language{
		Name:            "html",
		Aliases:         []string{"htm", "xhtml"},
		Extensions:      []string{".html", ".htm"},
		Grammar:         html.GetLanguage(),
		GrammarName:     "html",
		HighlightsQuery: htmlHighlights,
		InjectionsQuery: htmlInjections,
		Indent: indent.Scopes{
			Indent:  []string{"element", "script_element", "style_element"},
			Outdent: []string{"start_tag", "end_tag", "self_closing_tag"},
		},
	}
}

// JavaScript is JavaScript.
func JavaScript() *Language {
	return &Language{
		Name:            "javascript",
		Aliases:         []string{"js"},
		Extensions:      []string{".js", ".mjs", ".cjs"},
		Grammar:         javascript.GetLanguage(),
		GrammarName:     "javascript",
		HighlightsQuery: javascriptHighlights,
		Indent: indent.Scopes{
			Indent: []string{
				"statement_block", "object", "array", "arguments",
				"formal_parameters", "class_body", "switch_body",
			},
			Outdent: []string{"}", ")", "]"},
		},
	}
}

// CSS is CSS.
func CSS() *Language {
	return &Language{
		Name:            "css",
		Extensions:      []string{".css"},
		Grammar:         css.GetLanguage(),
		GrammarName:     "css",
		HighlightsQuery: cssHighlights,
		Indent: indent.Scopes{
			Indent:  []string{"block"},
			Outdent: []string{"}"},
		},
	}
}

const goHighlights = `
(comment) @comment
(interpreted_string_literal) @string
(raw_string_literal) @string
(rune_literal) @string
(escape_sequence) @string.escape
(int_literal) @number
(float_literal) @number
[(true) (false) (nil)] @constant.language

(package_identifier) @namespace
(type_identifier) @type
(field_identifier) @variable.other
(parameter_declaration name: (identifier) @variable.parameter)
(function_declaration name: (identifier) @function.declaration)
(method_declaration name: (field_identifier) @function.method)
(call_expression function: (identifier) @function.call)
(call_expression function: (selector_expression field: (field_identifier) @function.method))
((call_expression function: (identifier) @function.builtin)
 (#match? @function.builtin "^(append|cap|clear|close|copy|delete|len|make|max|min|new|panic|print|println|recover)$"))
((identifier) @constant
 (#match? @constant "^[A-Z][A-Z0-9_]+$"))
(identifier) @variable

["if" "else" "for" "range" "switch" "case" "default" "select" "return" "break" "continue" "goto" "fallthrough" "go" "defer"] @keyword.control
["var" "const" "type" "func" "struct" "interface" "map" "chan"] @keyword.declaration
["package" "import"] @keyword.other

["(" ")" "{" "}" "[" "]"] @punctuation.bracket
["," "." ":" ";"] @punctuation.delimiter
["=" ":="] @operator.assignment
["==" "!=" "<" "<=" ">" ">="] @operator.comparison
["+" "-" "*" "/" "%"] @operator.arithmetic
["&&" "||" "!"] @operator.logical
`

const htmlHighlights = `
(tag_name) @tag
(erroneous_end_tag_name) @invalid
(doctype) @meta
(attribute_name) @attribute
(attribute_value) @string
(comment) @comment
["<" ">" "</" "/>"] @punctuation.bracket
"=" @operator
`

const htmlInjections = `
(script_element
  (raw_text) @injection.content
  (#set! injection.language "javascript"))

(style_element
  (raw_text) @injection.content
  (#set! injection.language "css"))
`

const javascriptHighlights = `
(comment) @comment
(string) @string
(template_string) @string
(regex) @string.regexp
(escape_sequence) @string.escape
(number) @number
[(true) (false) (null)] @constant.language
((identifier) @constant.language
 (#eq? @constant.language "undefined"))
(this) @variable.other

(function_declaration name: (identifier) @function.declaration)
(method_definition name: (property_identifier) @function.method)
(call_expression function: (identifier) @function.call)
(call_expression function: (member_expression property: (property_identifier) @function.method))
(property_identifier) @variable.other
((identifier) @constant
 (#match? @constant "^[A-Z][A-Z0-9_]+$"))
(identifier) @variable

["if" "else" "for" "while" "do" "switch" "case" "default" "return" "break" "continue" "try" "catch" "finally" "throw"] @keyword.control
["new" "typeof" "instanceof" "delete"] @keyword.operator
["var" "let" "const" "function" "class" "extends"] @keyword.declaration
["import" "export" "from"] @keyword.other

["(" ")" "{" "}" "[" "]"] @punctuation.bracket
["," "." ";" ":"] @punctuation.delimiter
["=" "+=" "-="] @operator.assignment
["==" "===" "!=" "!==" "<" "<=" ">" ">="] @operator.comparison
["+" "-" "*" "/" "%"] @operator.arithmetic
["&&" "||" "!"] @operator.logical
`

const cssHighlights = `
(comment) @comment
(tag_name) @tag
(class_name) @type.class
(id_name) @constant
(property_name) @attribute
(string_value) @string
(color_value) @constant
(integer_value) @number
(float_value) @number
(unit) @type.builtin
(function_name) @function.builtin
(important) @keyword.other
["{" "}"] @punctuation.bracket
[";" ":"] @punctuation.delimiter
`
