// Package beek implements the engine of an interactive calculator.
//
// Input is written the way math is in notes. "2 x y" is a multiplication of
// three terms, and so is "{2}[x](y)", but "xy" is a single name. "-2^2" is
// "-(2^2)", and "5x^2" is "5(x^2)".
//
// A Session keeps an environment of bindings between lines of input. There
// are two kinds of assignment. "x := expr" computes expr once and stores the
// number. "x = expr" stores expr itself, so x changes whenever the names in
// expr do. Functions are defined with "f(a, b) = expr". Each statement is
// shown as its formula with every name substituted one level deep, followed
// by its value if every name it depends on is bound.
package beek
