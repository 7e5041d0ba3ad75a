// Package template resolves {{ name }} context variables in command steps.
//
// Expansion is best effort: unknown variables are left in place and no error
// is reported. Platform environment variables such as $HOME are not touched;
// they are resolved by the shell that runs the step.
package template
