// Package lang compiles and evaluates embedded-code text templates.
//
// A template is literal text interleaved with three kinds of tags:
//
//	<% statement %>   control flow: if, elsif, else, for ... in, end
//	<%= expression %> output, HTML-escaped
//	<%- expression %> output, unescaped
//
// For example:
//
//	<ul>
//	<% for user in users %>
//	  <li id="<%= encrypt_number(user.id) %>"><%= user.name.upcase %></li>
//	<% end %>
//	</ul>
//
// # Expressions
//
// Operands are Integer, Float and String literals, true and false, list
// literals ([1, 2, x]), names bound in the [Context] or by an enclosing
// for loop, and calls to global functions (name(args)). Postfix member
// access (x.name, x.name(args), x.0) applies a built-in operation chosen by
// the receiver's kind, reads a Mapping key or Record field, or indexes a
// List or Pair. Prefix operators are !, - and +. Binary operators, loosest
// first, are ||, &&, the comparisons (== != < <= > >=), + and -, then * / %.
//
// # Compilation and caching
//
// [Lex] and [Parse] produce the node tree that [FromSource] and [Load]
// wrap in a [Template]. A [Cache] compiles each path once in production
// mode and on every load in development mode ([WithDevelopment]).
//
// # Errors
//
// Compilation failures are *[ParseError] values carrying the position and
// an offending-line snippet. Render failures wrap sentinels such as
// [ErrUndefinedVariable] and [ErrTypeMismatch] and carry their details as
// [log/slog] attributes. A failed render returns no partial output.
package lang
